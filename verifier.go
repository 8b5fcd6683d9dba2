package boardlog

// BreakReason is reported when a chain fails verification.
const BreakReason = "hash mismatch or prev_hash mismatch"

// Report is the outcome of verifying one community's chain. A broken chain
// is a normal verification result, not an error.
type Report struct {
	OK     bool
	Count  int    // entries scanned; set when OK
	Index  int    // position of the first broken entry; set when !OK
	ID     string // id of the first broken entry; set when !OK
	Reason string // set when !OK
}

// Verifier replays community chains from genesis to detect tampering.
type Verifier struct{ store Store }

// NewVerifier creates a verifier reading through store.
func NewVerifier(store Store) *Verifier {
	return &Verifier{store: store}
}

// Verify loads the community's chain and replays it. An unknown community
// has an empty chain and is trivially valid.
func (v *Verifier) Verify(community string) (Report, error) {
	board, err := v.store.Load()
	if err != nil {
		return Report{}, err
	}
	return VerifyChain(community, board[community]), nil
}

// VerifyChain recomputes every link of history, starting from an empty
// previous hash, and reports the first divergence. It never mutates state.
func VerifyChain(community string, history []Entry) Report {
	prev := ""
	for i, e := range history {
		expected := EntryHash(e.Message, e.Timestamp, community, prev)
		if e.Hash != expected || e.PrevHash != prev {
			return Report{OK: false, Index: i, ID: e.ID, Reason: BreakReason}
		}
		prev = e.Hash
	}
	return Report{OK: true, Count: len(history)}
}
