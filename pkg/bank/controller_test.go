package bank

import (
	"testing"

	"github.com/vaultline/spotchain/pkg/types"
)

func pk(b byte) types.AccountPubKey {
	var k types.AccountPubKey
	k[0] = b
	return k
}

func TestCreateAccountRejectsDuplicate(t *testing.T) {
	c := New()
	a := pk(1)
	if err := c.CreateAccount(a); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err := c.CreateAccount(a)
	if types.KindOf(err) != types.AccountCreation {
		t.Fatalf("expected AccountCreation error, got %v", err)
	}
}

func TestCreateAssetCreditsCreator(t *testing.T) {
	c := New()
	creator := pk(1)
	asset, err := c.CreateAsset(creator, 1000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	bal, err := c.GetBalance(creator, asset)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bal != 1000 {
		t.Fatalf("expected balance 1000, got %d", bal)
	}
}

func TestCreateAssetAssignsSequentialIDs(t *testing.T) {
	c := New()
	creator := pk(1)
	a1, _ := c.CreateAsset(creator, 1)
	a2, _ := c.CreateAsset(creator, 1)
	if a2 != a1+1 {
		t.Fatalf("expected sequential asset ids, got %d then %d", a1, a2)
	}
}

func TestGetBalanceUnknownAccountErrors(t *testing.T) {
	c := New()
	_, err := c.GetBalance(pk(9), 0)
	if types.KindOf(err) != types.AccountLookup {
		t.Fatalf("expected AccountLookup error, got %v", err)
	}
}

func TestGetBalanceKnownAccountMissingAssetIsZero(t *testing.T) {
	c := New()
	a := pk(1)
	c.CreateAccount(a)
	bal, err := c.GetBalance(a, 77)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bal != 0 {
		t.Fatalf("expected 0 balance, got %d", bal)
	}
}

func TestTransferMovesFundsAndCreatesRecipient(t *testing.T) {
	c := New()
	from := pk(1)
	to := pk(2)
	asset, _ := c.CreateAsset(from, 1000)
	if err := c.Transfer(from, to, asset, 300); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	fromBal, _ := c.GetBalance(from, asset)
	toBal, _ := c.GetBalance(to, asset)
	if fromBal != 700 {
		t.Fatalf("expected sender balance 700, got %d", fromBal)
	}
	if toBal != 300 {
		t.Fatalf("expected recipient balance 300, got %d", toBal)
	}
}

func TestTransferInsufficientFundsFails(t *testing.T) {
	c := New()
	from := pk(1)
	to := pk(2)
	asset, _ := c.CreateAsset(from, 100)
	err := c.Transfer(from, to, asset, 500)
	if types.KindOf(err) != types.InsufficientBalance {
		t.Fatalf("expected InsufficientBalance error, got %v", err)
	}
	fromBal, _ := c.GetBalance(from, asset)
	if fromBal != 100 {
		t.Fatalf("expected sender balance unchanged at 100, got %d", fromBal)
	}
}

func TestConservationAcrossTransfers(t *testing.T) {
	c := New()
	a, b, cc := pk(1), pk(2), pk(3)
	asset, _ := c.CreateAsset(a, 1000)
	c.Transfer(a, b, asset, 400)
	c.Transfer(b, cc, asset, 150)
	c.Transfer(a, cc, asset, 100)

	balA, _ := c.GetBalance(a, asset)
	balB, _ := c.GetBalance(b, asset)
	balC, _ := c.GetBalance(cc, asset)
	total := balA + balB + balC
	if total != 1000 {
		t.Fatalf("expected conserved total 1000, got %d", total)
	}
}

func TestUpdateBalanceDebitInsufficientFails(t *testing.T) {
	c := New()
	a := pk(1)
	c.UpdateBalance(a, 0, 50, true)
	err := c.UpdateBalance(a, 0, 100, false)
	if types.KindOf(err) != types.InsufficientBalance {
		t.Fatalf("expected InsufficientBalance error, got %v", err)
	}
}
