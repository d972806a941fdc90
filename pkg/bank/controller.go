// Package bank implements the multi-asset ledger every other controller
// settles through.
package bank

import (
	"sync"

	"github.com/vaultline/spotchain/pkg/types"
)

// Controller is the bank ledger: per-account balances across every asset.
// All operations are serialized by mu; it is a leaf lock, never acquired
// while holding any other controller's lock.
type Controller struct {
	mu         sync.Mutex
	accounts   map[types.AccountPubKey]map[types.AssetId]uint64
	numAssets  uint64
	assetOwner map[types.AssetId]types.AccountPubKey
}

// New constructs an empty bank ledger.
func New() *Controller {
	return &Controller{
		accounts:   make(map[types.AccountPubKey]map[types.AssetId]uint64),
		assetOwner: make(map[types.AssetId]types.AccountPubKey),
	}
}

// CreateAccount registers pk with an empty balance map. Fails if pk already
// has an entry in the ledger, even one with no asset balances.
func (c *Controller) CreateAccount(pk types.AccountPubKey) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.createAccountLocked(pk)
}

func (c *Controller) createAccountLocked(pk types.AccountPubKey) error {
	if _, exists := c.accounts[pk]; exists {
		return types.Errorf(types.AccountCreation, "account %s already exists", pk)
	}
	c.accounts[pk] = make(map[types.AssetId]uint64)
	return nil
}

func (c *Controller) ensureAccountLocked(pk types.AccountPubKey) {
	if _, exists := c.accounts[pk]; !exists {
		c.accounts[pk] = make(map[types.AssetId]uint64)
	}
}

// CreateAsset mints a new asset, crediting createdAssetBalance of it to creator.
func (c *Controller) CreateAsset(creator types.AccountPubKey, createdAssetBalance uint64) (types.AssetId, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	asset := types.AssetId(c.numAssets)
	c.numAssets++
	c.assetOwner[asset] = creator

	c.ensureAccountLocked(creator)
	c.accounts[creator][asset] += createdAssetBalance
	return asset, nil
}

// GetBalance returns the balance of asset for pk. Returns AccountLookup if
// pk has no entry in the ledger at all; returns 0 if the account exists
// but has never touched asset.
func (c *Controller) GetBalance(pk types.AccountPubKey, asset types.AssetId) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	bal, exists := c.accounts[pk]
	if !exists {
		return 0, types.Errorf(types.AccountLookup, "account %s does not exist", pk)
	}
	return bal[asset], nil
}

// Transfer moves amount of asset from "from" to "to", atomically. The
// recipient is created lazily if absent.
func (c *Controller) Transfer(from, to types.AccountPubKey, asset types.AssetId, amount uint64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	fromBal, exists := c.accounts[from]
	if !exists {
		return types.Errorf(types.AccountLookup, "account %s does not exist", from)
	}
	if fromBal[asset] < amount {
		return types.Errorf(types.InsufficientBalance, "account %s has %d of asset %d, needs %d", from, fromBal[asset], asset, amount)
	}

	fromBal[asset] -= amount
	c.ensureAccountLocked(to)
	c.accounts[to][asset] += amount
	return nil
}

// UpdateBalance is the low-level primitive transfers are built on: credit
// or debit a single account's single-asset balance.
func (c *Controller) UpdateBalance(pk types.AccountPubKey, asset types.AssetId, delta uint64, isCredit bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.ensureAccountLocked(pk)
	if isCredit {
		c.accounts[pk][asset] += delta
		return nil
	}
	if c.accounts[pk][asset] < delta {
		return types.Errorf(types.InsufficientBalance, "account %s has %d of asset %d, needs %d", pk, c.accounts[pk][asset], asset, delta)
	}
	c.accounts[pk][asset] -= delta
	return nil
}

// Exists reports whether pk has any entry in the ledger.
func (c *Controller) Exists(pk types.AccountPubKey) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.accounts[pk]
	return ok
}
