package page

import "heapstore/pkg/primitives"

// Page is a page resident in the buffer pool. A page is dirty from the first
// modification by a transaction until it is written back or its changes are
// undone.
type Page interface {
	GetID() primitives.PageID

	// IsDirty returns the transaction that dirtied the page, or nil when clean.
	IsDirty() *primitives.TransactionID
	MarkDirty(dirty bool, tid *primitives.TransactionID)

	// GetPageData serializes the page to exactly one page of bytes.
	GetPageData() []byte

	// GetBeforeImage returns the page as of the last SetBeforeImage. Abort
	// installs it in place of the dirty page.
	GetBeforeImage() Page

	// SetBeforeImage snapshots the current contents. Commit calls it once the
	// page has reached disk.
	SetBeforeImage()
}
