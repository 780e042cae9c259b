package anki

// Note model and field names for the stock "Basic" note type.
const (
	ModelBasic = "Basic"
	FieldFront = "Front"
	FieldBack  = "Back"

	// DefaultTag marks every note created by tecanki.
	DefaultTag = "tec-bot"
)

// Note is the addNote payload.
type Note struct {
	DeckName  string            `json:"deckName"`
	ModelName string            `json:"modelName"`
	Fields    map[string]string `json:"fields"`
	Options   *NoteOptions      `json:"options,omitempty"`
	Tags      []string          `json:"tags,omitempty"`
}

// NoteOptions controls duplicate handling.
type NoteOptions struct {
	AllowDuplicate bool   `json:"allowDuplicate"`
	DuplicateScope string `json:"duplicateScope,omitempty"`
}

// NewBasicNote builds a tagged Basic note that may duplicate others in its
// deck.
func NewBasicNote(deck, front, back string) Note {
	return Note{
		DeckName:  deck,
		ModelName: ModelBasic,
		Fields: map[string]string{
			FieldFront: front,
			FieldBack:  back,
		},
		Options: &NoteOptions{
			AllowDuplicate: true,
			DuplicateScope: "deck",
		},
		Tags: []string{DefaultTag},
	}
}
