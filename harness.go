package loyalty

import ristretto "github.com/gtank/ristretto255"

// TxRecord accumulates the per-step outputs of a single transaction
// as it moves through the five-message exchange, mirroring the
// prototype's benchmark driver which fills in one dict field per
// step rather than threading values through as separate return
// values. It exists for callers (tests, benchmarks) that want to
// drive a transaction end-to-end without hand-wiring every
// intermediate value themselves.
type TxRecord struct {
	Tx      TxID
	IS      uint64
	IC      uint64
	R       [64]byte
	UIDShop uint64
	UIDB    uint64
	Barcode uint64
	PKB     *ristretto.Element
	Proof   MerkleProof
	Points  int64
	CtShop  Ciphertext
	CtB     Ciphertext
	EqProof EqProof
}

// RunTransaction drives shopper through all five client/server
// messages of a single transaction against srv, debiting shopper and
// crediting points to the barcode owner selected by the joint coin
// flip. The barcode argument does not choose the owner: it is stored
// in the TxRecord and replaced there by the selected owner's barcode
// once step 4 returns. It returns the filled-in TxRecord on success. shopperUID identifies the shopper's own
// registered record, needed because the server authenticates the
// debit side of step 5 by uid rather than by key.
func RunTransaction(srv *Server, shopper *Client, shopperUID uint64, barcode uint64, points int64) (*TxRecord, error) {
	rec := &TxRecord{UIDShop: shopperUID, Barcode: barcode, Points: points}

	tx, err := shopper.ProcessTxHello()
	if err != nil {
		return rec, err
	}
	rec.Tx = tx

	iS, err := srv.ProcessTxHelloResponse(tx)
	if err != nil {
		return rec, err
	}
	rec.IS = iS

	iC, r, err := shopper.ProcessTxComputeID(iS, tx)
	if err != nil {
		return rec, err
	}
	rec.IC, rec.R = iC, r

	uidB, ownerBarcode, pkB, proof, err := srv.ProcessTxBarcodeGen(iC, r, tx)
	if err != nil {
		return rec, err
	}
	rec.UIDB, rec.Barcode, rec.PKB, rec.Proof = uidB, ownerBarcode, pkB, proof

	cts, ctb, pi, err := shopper.ProcessTx(proof, ownerBarcode, points, pkB, tx)
	if err != nil {
		return rec, err
	}
	rec.CtShop, rec.CtB, rec.EqProof = cts, ctb, pi

	if err := srv.ProcessTx(shopperUID, cts, ctb, pi, tx); err != nil {
		return rec, err
	}

	return rec, nil
}
