package view

const (
	NameTypeOriginal  = "original"
	NameTypeShortened = "shortened"
)

const (
	ArchiveNameOriginal  = "download.zip"
	ArchiveNameShortened = "download_numbered.zip"
)

type FileRef struct {
	PdfUrn  string `json:"pdfUrn"`
	MainUrn string `json:"mainUrn"`
}

// DownloadAllReq is the transient work unit for bulk export. It has no
// identity beyond the request it arrived in.
type DownloadAllReq struct {
	Files    []FileRef `json:"files"`
	NameType string    `json:"nameType"`
}

func ValidNameType(nameType string) bool {
	switch nameType {
	case NameTypeOriginal, NameTypeShortened:
		return true
	default:
		return false
	}
}

// SignedAccess is the ephemeral credential granting direct read access to
// one derivative's bytes. It expires on a vendor-controlled clock and is
// never persisted.
type SignedAccess struct {
	Url       string
	FileName  string
	Policy    string
	KeyPairId string
	Signature string
}
