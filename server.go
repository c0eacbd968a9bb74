package loyalty

// Server state machine (C7): the registry of users, the Merkle
// commitment to that registry, per-transaction scratch state, and the
// balance ledger.

import (
	"crypto/rand"
	"io"
	"sync"

	"github.com/go-pkgz/lgr"
	ristretto "github.com/gtank/ristretto255"
)

// UserRecord is a single registered user as held by the server. uid
// is the record's index in the registry and is immutable once
// assigned.
type UserRecord struct {
	UID     uint64
	Barcode uint64
	PK      *ristretto.Element
	Balance Ciphertext
}

// txScratch is the server's short-lived per-transaction state. It is
// created in ProcessTxHelloResponse and destroyed in ProcessTx (or on
// any unrecoverable error along the way).
type txScratch struct {
	iS   uint64
	uidB uint64
	have bool // whether uidB has been computed yet (step 4 has run)
}

// Server is the server side of the protocol: it never learns the
// point quantity of any transaction it processes, yet can verify that
// a transaction's debit and credit ciphertexts are consistent and
// that the credited user is registered. It does learn the barcode
// owner's uid, which it computes itself in ProcessTxBarcodeGen from
// the joint coin flip.
type Server struct {
	cfg Config
	rng io.Reader
	log lgr.L

	mu    sync.RWMutex
	users []UserRecord
	tree  *MerkleRegistry
	tmp   map[TxID]*txScratch
}

// ServerOption configures optional Server behavior.
type ServerOption func(*Server)

// WithServerRNG overrides the server's randomness source (tests use
// this to supply a deterministic reader so that i_s can be forced).
func WithServerRNG(rng io.Reader) ServerOption {
	return func(s *Server) { s.rng = rng }
}

// WithServerLogger attaches a logger; the default is a no-op logger.
func WithServerLogger(log lgr.L) ServerOption {
	return func(s *Server) { s.log = log }
}

// NewServer constructs a Server. cfg.HandlePoints must be true; the
// point-free protocol variant is not implemented.
func NewServer(cfg Config, opts ...ServerOption) (*Server, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	s := &Server{
		cfg:  cfg,
		rng:  rand.Reader,
		log:  lgr.NoOp,
		tree: NewMerkleRegistry(),
		tmp:  make(map[TxID]*txScratch),
	}
	for _, o := range opts {
		o(s)
	}
	return s, nil
}

// RegisterUser appends a new UserRecord with an initial balance of
// Encrypt(pk, 0), and extends the Merkle tree with its leaf. Returns
// the newly assigned uid.
func (s *Server) RegisterUser(barcode uint64, pk *ristretto.Element) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	balance, err := Encrypt(s.rng, pk, 0)
	if err != nil {
		return 0, err
	}

	uid := uint64(len(s.users))
	s.users = append(s.users, UserRecord{
		UID:     uid,
		Barcode: barcode,
		PK:      pk,
		Balance: balance,
	})
	s.tree.Append(EncodeUserLeaf(uid, barcode, pk.Encode(nil)))

	s.log.Logf("INFO registered user uid=%d barcode=%d", uid, barcode)
	return uid, nil
}

// ShareState returns the current number of registered users and the
// Merkle root, for clients to cache via Client.UpdateState.
func (s *Server) ShareState() (numUsers uint64, root [32]byte) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return uint64(len(s.users)), s.tree.Root()
}

// ProcessTxHelloResponse is step 2: the server draws its own uniform
// share i_s of the joint coin flip, stashes it under the given tx_id
// (the shopper's commitment), and returns i_s to the shopper.
func (s *Server) ProcessTxHelloResponse(com TxID) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tmp[com]; exists {
		return 0, newErr(ErrDuplicateTx, "a transaction is already live for this tx_id")
	}
	numUsers := uint64(len(s.users))
	if numUsers == 0 {
		return 0, newErr(ErrEmptyRegistry, "no users are registered")
	}

	iS, err := randomIndex(s.rng, numUsers)
	if err != nil {
		return 0, err
	}

	s.tmp[com] = &txScratch{iS: iS}
	return iS, nil
}

// ProcessTxBarcodeGen is step 4: given the shopper's opening (i_c, r)
// of its step-1 commitment, the server verifies the opening, computes
// uid_b = (i_c + i_s) mod num_users, and returns that user's public
// record together with a Merkle inclusion proof.
func (s *Server) ProcessTxBarcodeGen(iC uint64, r [64]byte, tx TxID) (uidB uint64, barcode uint64, pkB *ristretto.Element, proof MerkleProof, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	scratch, exists := s.tmp[tx]
	if !exists {
		return 0, 0, nil, MerkleProof{}, newErr(ErrUnknownTx, "no live transaction for this tx_id")
	}
	if !open(iC, r, tx) {
		delete(s.tmp, tx)
		return 0, 0, nil, MerkleProof{}, newErr(ErrBadCommitment, "opening does not match the step-1 commitment")
	}

	numUsers := uint64(len(s.users))
	uidB = (iC + scratch.iS) % numUsers
	user := s.users[uidB]

	proof, proofErr := s.tree.ProveInclusion(int(uidB))
	if proofErr != nil {
		delete(s.tmp, tx)
		return 0, 0, nil, MerkleProof{}, proofErr
	}

	scratch.uidB = uidB
	scratch.have = true

	return uidB, user.Barcode, user.PK, proof, nil
}

// ProcessTx is step 5: the server verifies the shopper's ZK-EQ proof
// that cts and ctb encrypt equal-and-opposite quantities, then
// atomically applies both balance updates. Both updates happen under
// the same lock; there is no partial-write state.
func (s *Server) ProcessTx(shopperUID uint64, cts, ctb Ciphertext, pi EqProof, tx TxID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	scratch, exists := s.tmp[tx]
	if !exists || !scratch.have {
		return newErr(ErrUnknownTx, "no completed barcode-gen step for this tx_id")
	}
	if shopperUID >= uint64(len(s.users)) {
		return newErr(ErrUserNotFound, "shopper uid not registered")
	}

	pkS := s.users[shopperUID].PK
	pkB := s.users[scratch.uidB].PK

	if err := VerifyEq(pkS, pkB, cts, ctb, pi); err != nil {
		delete(s.tmp, tx)
		s.log.Logf("WARN tx %x aborted: %v", tx, err)
		return err
	}

	s.users[shopperUID].Balance = Add(s.users[shopperUID].Balance, cts)
	s.users[scratch.uidB].Balance = Add(s.users[scratch.uidB].Balance, ctb)
	delete(s.tmp, tx)

	s.log.Logf("INFO tx %x completed shopper=%d barcode_owner=%d", tx, shopperUID, scratch.uidB)
	return nil
}

// SettleBalanceHello returns the current encrypted balance of uid, for
// the client to decrypt and prove correct decryption of.
func (s *Server) SettleBalanceHello(uid uint64) (Ciphertext, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if uid >= uint64(len(s.users)) {
		return Ciphertext{}, newErr(ErrUserNotFound, "uid not registered")
	}
	return s.users[uid].Balance, nil
}

// SettleBalanceFinalize verifies the client's ZK-DEC proof that
// plaintext is the correct decryption of the user's current balance
// ciphertext, under that user's public key. The check is against the
// ledger as it stands when this method runs, which matches what
// SettleBalanceHello returned only if no transaction has touched the
// balance since. What happens to the ledger after a successful
// settlement (reset, subtract, leave untouched) is a deployment
// policy left to the caller; this method only certifies the
// plaintext.
func (s *Server) SettleBalanceFinalize(uid uint64, plaintext int64, pi DecProof) error {
	s.mu.RLock()
	if uid >= uint64(len(s.users)) {
		s.mu.RUnlock()
		return newErr(ErrUserNotFound, "uid not registered")
	}
	ct := s.users[uid].Balance
	pk := s.users[uid].PK
	s.mu.RUnlock()

	if err := VerifyDec(pk, ct, plaintext, pi); err != nil {
		return err
	}
	s.log.Logf("INFO settlement certified uid=%d", uid)
	return nil
}
