package order

// ResultStore holds the per-particle output of a HexOrder. Its buffer is only
// reallocated when the number of particles changes.
type ResultStore struct {
	psi []complex128
}

// resize returns a buffer of length n, reusing the current one if it already
// has that length.
func (r *ResultStore) resize(n int) []complex128 {
	if r.psi != nil && len(r.psi) == n { return r.psi }

	orderLog.WithField("particles", n).Debug("Reallocating result buffer.")
	r.psi = make([]complex128, n)
	return r.psi
}

// Psi returns the stored results. It is empty, not nil, before the first
// call to Compute.
func (r *ResultStore) Psi() []complex128 {
	if r.psi == nil { return []complex128{ } }
	return r.psi
}

// Len returns the number of stored results.
func (r *ResultStore) Len() int { return len(r.psi) }
