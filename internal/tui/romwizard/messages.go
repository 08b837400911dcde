package romwizard

import (
	"github.com/intern-ship-it/new-chinese-sub016/internal/booking"
	"github.com/intern-ship-it/new-chinese-sub016/internal/catalog"
	"github.com/intern-ship-it/new-chinese-sub016/internal/domain"
)

// CatalogLoadedMsg carries the result of a background catalog fetch.
type CatalogLoadedMsg struct {
	Catalog *catalog.Catalog
	Err     error
}

// SubmitDoneMsg carries the backend's answer to a submission.
type SubmitDoneMsg struct {
	Result *domain.SubmitResult
	Err    error
}

// PreviewReadyMsg carries a thumbnail generated for a pending file.
type PreviewReadyMsg struct {
	Slot    booking.Slot
	FileID  string
	Preview booking.Preview
	Err     error
}

// RemarksEditedMsg is sent when the external editor returns.
type RemarksEditedMsg struct {
	Content string
	Err     error
}
