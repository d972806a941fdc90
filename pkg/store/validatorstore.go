package store

import (
	"encoding/binary"
	"encoding/json"
	"sync"

	"github.com/vaultline/spotchain/pkg/spot"
	"github.com/vaultline/spotchain/pkg/types"
)

const (
	prefixBlock          = "b:"
	prefixBlockInfo      = "bi:"
	prefixOrderbookDepth = "latest_orderbook_depth_store:"
	keyLastBlockInfo     = "last_block_info"
)

// gcEntry is a (BlockDigest -> ConsensusIndex) dedup-cache row, retained
// together so prune() can compute its retention threshold in one pass.
type gcEntry struct {
	digest types.BlockDigest
	index  types.ConsensusIndex
}

// ValidatorStore deduplicates transactions within a sliding window,
// seals blocks, and rehydrates block_number from disk on restart
// (spec.md §4.6). Cache updates, block sealing and depth writes are
// serialized by mu; the Get* readers go to kv without taking it.
type ValidatorStore struct {
	mu sync.Mutex

	kv OrderedKVStore

	// transactionCache maps a transaction digest to the digest of the
	// block it was committed in, or to an entry with committed=false if
	// it has only been seen pre-consensus (never committed).
	transactionCache map[types.TransactionDigest]txCacheEntry
	blockDigestCache map[types.BlockDigest]types.ConsensusIndex

	blockNumber uint64
	gcDepth     uint64
}

type txCacheEntry struct {
	committed bool
	block     types.BlockDigest
}

// New constructs a ValidatorStore over kv, rehydrating block_number from
// the last sealed BlockInfo if one is present.
func New(kv OrderedKVStore, gcDepth uint64) (*ValidatorStore, error) {
	s := &ValidatorStore{
		kv:               kv,
		transactionCache: make(map[types.TransactionDigest]txCacheEntry),
		blockDigestCache: make(map[types.BlockDigest]types.ConsensusIndex),
		gcDepth:          gcDepth,
	}
	info, ok, err := s.readLastBlockInfo()
	if err != nil {
		return nil, err
	}
	if ok {
		s.blockNumber = info.BlockNumber + 1
	}
	return s, nil
}

// InsertUnconfirmedTransaction records a pre-consensus hint that tx was
// seen, without yet knowing which block (if any) will commit it.
func (s *ValidatorStore) InsertUnconfirmedTransaction(digest types.TransactionDigest) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.transactionCache[digest]; exists {
		return
	}
	s.transactionCache[digest] = txCacheEntry{}
}

// InsertConfirmedTransaction records that digest committed under
// blockDigest at consensusIndex. Returns TransactionDuplicate if digest
// was already committed in a (possibly different) block.
func (s *ValidatorStore) InsertConfirmedTransaction(digest types.TransactionDigest, blockDigest types.BlockDigest, consensusIndex types.ConsensusIndex) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry, exists := s.transactionCache[digest]; exists && entry.committed {
		return types.Errorf(types.TransactionDuplicate, "transaction %x already committed in block %x", digest, entry.block)
	}
	s.transactionCache[digest] = txCacheEntry{committed: true, block: blockDigest}
	s.blockDigestCache[blockDigest] = consensusIndex
	return nil
}

// WriteLatestBlock seals a block: writes the block, its BlockInfo, and
// the last-block-info pointer, in that exact order, then increments
// block_number only after all three writes succeed. Returns the sealed
// Block and BlockInfo.
func (s *ValidatorStore) WriteLatestBlock(certificateDigest types.BlockDigest, executed []types.ExecutedTransaction, wallClockMicros uint64) (types.Block, types.BlockInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	block := types.Block{
		BlockNumber:       s.blockNumber,
		CertificateDigest: certificateDigest,
		Executed:          executed,
	}
	info := types.BlockInfo{
		BlockNumber:     s.blockNumber,
		BlockDigest:     certificateDigest,
		WallClockMicros: wallClockMicros,
	}

	if err := s.writeBlock(block); err != nil {
		return types.Block{}, types.BlockInfo{}, err
	}
	if err := s.writeBlockInfo(info); err != nil {
		return types.Block{}, types.BlockInfo{}, err
	}
	if err := s.writeLastBlockInfo(info); err != nil {
		return types.Block{}, types.BlockInfo{}, err
	}
	s.blockNumber++
	return block, info, nil
}

// Prune bounds the dedup caches to the most recent gcDepth consensus
// indices, per spec.md §4.6: first trims blockDigestCache to entries
// newer than (max index - gcDepth), then retains only transactionCache
// entries that are either still unconfirmed or reference a surviving
// block digest.
func (s *ValidatorStore) Prune() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if uint64(len(s.blockDigestCache)) <= s.gcDepth {
		return
	}

	var maxIdx uint64
	for _, idx := range s.blockDigestCache {
		if flat := flattenIndex(idx); flat > maxIdx {
			maxIdx = flat
		}
	}
	var threshold uint64
	if maxIdx > s.gcDepth {
		threshold = maxIdx - s.gcDepth
	}

	for digest, idx := range s.blockDigestCache {
		if flattenIndex(idx) <= threshold {
			delete(s.blockDigestCache, digest)
		}
	}

	for digest, entry := range s.transactionCache {
		if !entry.committed {
			continue
		}
		if _, stillLive := s.blockDigestCache[entry.block]; !stillLive {
			delete(s.transactionCache, digest)
		}
	}
}

// flattenIndex orders a ConsensusIndex into a single comparable uint64
// for threshold arithmetic: certificate index dominates, then batch,
// then transaction, matching the lexicographic order a ConsensusIndex
// represents. Callers only ever compare two flattened indices against
// each other, never interpret the magnitude.
func flattenIndex(idx types.ConsensusIndex) uint64 {
	return idx.CertificateIndex*1_000_000_000 + idx.BatchIndex*1_000_000 + idx.TransactionIndex
}

// BlockNumber returns the next block number to be sealed.
func (s *ValidatorStore) BlockNumber() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.blockNumber
}

func (s *ValidatorStore) writeBlock(b types.Block) error {
	data, err := json.Marshal(b)
	if err != nil {
		return err
	}
	return s.kv.Set(blockKey(b.BlockNumber), data)
}

func (s *ValidatorStore) writeBlockInfo(info types.BlockInfo) error {
	data, err := json.Marshal(info)
	if err != nil {
		return err
	}
	return s.kv.Set(blockInfoKey(info.BlockNumber), data)
}

func (s *ValidatorStore) writeLastBlockInfo(info types.BlockInfo) error {
	data, err := json.Marshal(info)
	if err != nil {
		return err
	}
	return s.kv.Set([]byte(keyLastBlockInfo), data)
}

func (s *ValidatorStore) readLastBlockInfo() (types.BlockInfo, bool, error) {
	data, ok, err := s.kv.Get([]byte(keyLastBlockInfo))
	if err != nil || !ok {
		return types.BlockInfo{}, false, err
	}
	var info types.BlockInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return types.BlockInfo{}, false, err
	}
	return info, true, nil
}

// GetBlock reads back a previously sealed block by number.
func (s *ValidatorStore) GetBlock(blockNumber uint64) (types.Block, bool, error) {
	data, ok, err := s.kv.Get(blockKey(blockNumber))
	if err != nil || !ok {
		return types.Block{}, false, err
	}
	var b types.Block
	if err := json.Unmarshal(data, &b); err != nil {
		return types.Block{}, false, err
	}
	return b, true, nil
}

// GetBlockInfo reads back a previously sealed BlockInfo by number.
func (s *ValidatorStore) GetBlockInfo(blockNumber uint64) (types.BlockInfo, bool, error) {
	data, ok, err := s.kv.Get(blockInfoKey(blockNumber))
	if err != nil || !ok {
		return types.BlockInfo{}, false, err
	}
	var info types.BlockInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return types.BlockInfo{}, false, err
	}
	return info, true, nil
}

// GetLatestBlockInfo returns the most recently sealed BlockInfo.
func (s *ValidatorStore) GetLatestBlockInfo() (types.BlockInfo, bool, error) {
	return s.readLastBlockInfo()
}

// WriteOrderbookDepth persists pair's latest depth snapshot under
// latest_orderbook_depth_store, keyed by its AssetPairKey (spec.md §4.4,
// §6). Overwrites whatever was previously stored for the pair.
func (s *ValidatorStore) WriteOrderbookDepth(pairKey string, depth spot.OrderbookDepth) error {
	data, err := json.Marshal(depth)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.kv.Set(orderbookDepthKey(pairKey), data)
}

// WriteOrderbookDepths persists every pair's depth in depths under
// latest_orderbook_depth_store. Called from the end-of-block hook with
// the map router.ProcessEndOfBlock returns every OrderbookDepthFrequency
// blocks; a nil or empty map is a no-op.
func (s *ValidatorStore) WriteOrderbookDepths(depths map[string]spot.OrderbookDepth) error {
	for pairKey, depth := range depths {
		if err := s.WriteOrderbookDepth(pairKey, depth); err != nil {
			return err
		}
	}
	return nil
}

// GetLatestOrderbookDepth reads back the most recently persisted depth
// snapshot for pairKey, if any.
func (s *ValidatorStore) GetLatestOrderbookDepth(pairKey string) (spot.OrderbookDepth, bool, error) {
	data, ok, err := s.kv.Get(orderbookDepthKey(pairKey))
	if err != nil || !ok {
		return spot.OrderbookDepth{}, false, err
	}
	var depth spot.OrderbookDepth
	if err := json.Unmarshal(data, &depth); err != nil {
		return spot.OrderbookDepth{}, false, err
	}
	return depth, true, nil
}

func orderbookDepthKey(pairKey string) []byte {
	return append([]byte(prefixOrderbookDepth), pairKey...)
}

func blockKey(blockNumber uint64) []byte {
	return appendBlockNumber([]byte(prefixBlock), blockNumber)
}

func blockInfoKey(blockNumber uint64) []byte {
	return appendBlockNumber([]byte(prefixBlockInfo), blockNumber)
}

func appendBlockNumber(prefix []byte, blockNumber uint64) []byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], blockNumber)
	return append(prefix, buf[:]...)
}
