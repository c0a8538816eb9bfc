package dto

// NailStudioExportQuery selects the studios to export. The list filters apply; paging does not.
type NailStudioExportQuery struct {
	NailStudioListQuery
	Format string
}

// ExportFile is a rendered export ready to be sent as an attachment.
type ExportFile struct {
	Filename    string
	ContentType string
	Content     []byte
	Rows        int
	Truncated   bool
}
