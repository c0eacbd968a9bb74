package loyalty

// Client state machine (C8): key material, per-transaction scratch,
// and the five client-side message handlers. Each transaction id
// tracks its own small state machine (Idle -> HelloSent -> IDComputed
// -> Finalized); handling a message out of order for a given tx_id
// fails with ErrProtocolOrder.

import (
	"crypto/rand"
	"io"
	"sync"

	"github.com/go-pkgz/lgr"
	ristretto "github.com/gtank/ristretto255"
)

// txState is the per-transaction client-side protocol state.
type txState int

const (
	stateHelloSent txState = iota
	stateIDComputed
)

// clientTxScratch is the client's short-lived per-transaction state.
type clientTxScratch struct {
	state txState
	iC    uint64
	r     [64]byte
	uidB  uint64
}

// Client is the client side of the protocol: it holds one loyalty
// barcode and one encryption key pair.
type Client struct {
	Barcode uint64
	sk      *ristretto.Scalar
	pk      *ristretto.Element

	cfg Config
	rng io.Reader
	log lgr.L

	mu       sync.Mutex
	numUsers uint64
	root     [32]byte
	tmp      map[TxID]*clientTxScratch
}

// ClientOption configures optional Client behavior.
type ClientOption func(*Client)

// WithClientRNG overrides the client's randomness source (tests use
// this to supply a deterministic reader so that i_c can be forced).
func WithClientRNG(rng io.Reader) ClientOption {
	return func(c *Client) { c.rng = rng }
}

// WithClientLogger attaches a logger; the default is a no-op logger.
func WithClientLogger(log lgr.L) ClientOption {
	return func(c *Client) { c.log = log }
}

// NewClient constructs a Client owning the given barcode, generating
// a fresh encryption key pair. cfg.HandlePoints must be true.
func NewClient(cfg Config, barcode uint64, opts ...ClientOption) (*Client, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	c := &Client{
		Barcode: barcode,
		cfg:     cfg,
		rng:     rand.Reader,
		log:     lgr.NoOp,
		tmp:     make(map[TxID]*clientTxScratch),
	}
	for _, o := range opts {
		o(c)
	}
	sk, pk, err := Keygen(c.rng)
	if err != nil {
		return nil, err
	}
	c.sk, c.pk = sk, pk
	return c, nil
}

// PublicKey returns the client's encryption public key.
func (c *Client) PublicKey() *ristretto.Element {
	return c.pk
}

// RegisterWithServer returns the (barcode, pk) pair the caller should
// forward to Server.RegisterUser.
func (c *Client) RegisterWithServer() (barcode uint64, pk *ristretto.Element) {
	return c.Barcode, c.pk
}

// UpdateState caches the registry size and Merkle root most recently
// shared by the server via Server.ShareState. Callers must invoke
// this after any new registrations and before participating in
// transactions.
func (c *Client) UpdateState(numUsers uint64, root [32]byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.numUsers = numUsers
	c.root = root
}

// ProcessTxHello is step 1: the client draws its own uniform share i_c
// of the joint coin flip, commits to it, and returns the commitment
// (which also serves as the transaction's tx_id).
func (c *Client) ProcessTxHello() (TxID, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.numUsers == 0 {
		return TxID{}, newErr(ErrEmptyRegistry, "client has not observed any registered users")
	}

	iC, err := randomIndex(c.rng, c.numUsers)
	if err != nil {
		return TxID{}, err
	}
	r, err := randomMask(c.rng)
	if err != nil {
		return TxID{}, err
	}
	com := commit(iC, r)

	if _, exists := c.tmp[com]; exists {
		return TxID{}, newErr(ErrDuplicateTx, "a transaction is already live for this tx_id")
	}
	c.tmp[com] = &clientTxScratch{state: stateHelloSent, iC: iC, r: r}
	return com, nil
}

// ProcessTxComputeID is step 3: given the server's share i_s, the
// client computes uid_b = (i_c + i_s) mod num_users and returns the
// opening (i_c, r) of its step-1 commitment.
func (c *Client) ProcessTxComputeID(iS uint64, tx TxID) (iC uint64, r [64]byte, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	scratch, exists := c.tmp[tx]
	if !exists {
		return 0, [64]byte{}, newErr(ErrUnknownTx, "no live transaction for this tx_id")
	}
	if scratch.state != stateHelloSent {
		return 0, [64]byte{}, newErr(ErrProtocolOrder, "process_tx_compute_id called out of order")
	}
	if c.numUsers == 0 {
		delete(c.tmp, tx)
		return 0, [64]byte{}, newErr(ErrEmptyRegistry, "no users are registered")
	}

	scratch.uidB = (scratch.iC + iS) % c.numUsers
	scratch.state = stateIDComputed
	return scratch.iC, scratch.r, nil
}

// ProcessTx is step 5: the client verifies the Merkle inclusion proof
// for the barcode owner returned in step 4, encrypts the debit (-p)
// under its own key and the credit (+p) under the barcode owner's
// key, proves the two ciphertexts consistent via ZK-EQ, and returns
// everything the server needs to finalize the transaction.
func (c *Client) ProcessTx(proof MerkleProof, barcode uint64, points int64, pkB *ristretto.Element, tx TxID) (cts, ctb Ciphertext, pi EqProof, err error) {
	c.mu.Lock()
	scratch, exists := c.tmp[tx]
	if !exists {
		c.mu.Unlock()
		return Ciphertext{}, Ciphertext{}, EqProof{}, newErr(ErrUnknownTx, "no live transaction for this tx_id")
	}
	if scratch.state != stateIDComputed {
		c.mu.Unlock()
		return Ciphertext{}, Ciphertext{}, EqProof{}, newErr(ErrProtocolOrder, "process_tx called out of order")
	}
	root := c.root
	uidB := scratch.uidB
	c.mu.Unlock()

	magnitude := points
	if magnitude < 0 {
		magnitude = -magnitude
	}
	if uint64(magnitude) > uint64(c.cfg.MMax) {
		return Ciphertext{}, Ciphertext{}, EqProof{}, newErr(ErrPointsOutOfRange, "|points| exceeds the configured M_MAX window")
	}

	leaf := EncodeUserLeaf(uidB, barcode, pkB.Encode(nil))
	if !VerifyInclusion(leaf, root, proof) {
		c.mu.Lock()
		delete(c.tmp, tx)
		c.mu.Unlock()
		return Ciphertext{}, Ciphertext{}, EqProof{}, newErr(ErrInvalidProofMerkle, "barcode owner's Merkle inclusion proof does not verify")
	}

	wS, err := encryptWithWitness(c.rng, c.pk, -points)
	if err != nil {
		return Ciphertext{}, Ciphertext{}, EqProof{}, err
	}
	wB, err := encryptWithWitness(c.rng, pkB, points)
	if err != nil {
		return Ciphertext{}, Ciphertext{}, EqProof{}, err
	}

	pi, err = proveEq(c.rng, c.pk, pkB, wS.ct, wB.ct, points, wS.r, wB.r)
	if err != nil {
		return Ciphertext{}, Ciphertext{}, EqProof{}, err
	}

	c.mu.Lock()
	delete(c.tmp, tx)
	c.mu.Unlock()

	c.log.Logf("INFO tx %x ready to send: barcode_owner uid=%d", tx, uidB)
	return wS.ct, wB.ct, pi, nil
}

// SettleBalance decrypts ct under the client's own key and produces a
// ZK-DEC proof that the returned plaintext is correct, for the server
// to verify via Server.SettleBalanceFinalize.
func (c *Client) SettleBalance(ct Ciphertext) (int64, DecProof, error) {
	plaintext, err := Decrypt(c.sk, ct, c.cfg.MMax)
	if err != nil {
		return 0, DecProof{}, err
	}
	pi, err := proveDec(c.rng, c.sk, c.pk, ct, plaintext)
	if err != nil {
		return 0, DecProof{}, err
	}
	return plaintext, pi, nil
}
