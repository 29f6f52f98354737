package internal

type SourceKind string

const (
	SourcePPTX SourceKind = "pptx"
	SourcePDF  SourceKind = "pdf"
	SourceDOCX SourceKind = "docx"
	SourceHTML SourceKind = "html"
	SourceText SourceKind = "text"
)

// UnknownName is the canonical placeholder for a consultant whose name could
// not be resolved from the filename or the profile text.
const UnknownName = "Unknown"

type RawSlide struct {
	SlideNum int    `json:"slide_num"`
	RawText  string `json:"raw_data"`
}

// ParsedFields never omits a key: a field that was not found is "".
type ParsedFields struct {
	Name     string `json:"name"`
	Title    string `json:"title"`
	Email    string `json:"email"`
	Mobile   string `json:"mobile"`
	Location string `json:"location"`
	Data     string `json:"data"`
}

type SlideRecord struct {
	SlideNum   int          `json:"slide_num"`
	RawData    string       `json:"raw_data"`
	ParsedData ParsedFields `json:"parsed_data"`
}

type DocumentRecord struct {
	Filename string        `json:"filename"`
	Slides   []SlideRecord `json:"slides"`
}

type ConsultantCorpusEntry struct {
	Name        string `json:"name"`
	ProfileText string `json:"profile_text"`
}

type ConsultantRow struct {
	ID         int
	DocumentID int
	Name       string
	Title      string
	Mobile     string
	Location   string
	Email      string
}

type ConsultantSlideRow struct {
	ID           int
	ConsultantID int
	SlideNum     int
	RawData      string
	Data         string
}

type MailMessageRow struct {
	ID         int
	Provider   string
	MessageID  string
	Subject    string
	Sender     string
	ReceivedAt string
	Hash       string
	Status     string
	RawRef     string
}

type FetchedMailMessage struct {
	Provider   string
	MessageID  string
	Subject    string
	From       string
	ReceivedAt string
	Raw        []byte
}
