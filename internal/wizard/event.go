// Package wizard drives the report-entry conversation: a fixed set of
// states, the legal events of each state and the transition logic that
// reads the reference cache, mutates the session's report and produces
// the next prompt.
package wizard

// Event is one inbound conversation event: either a text message or a
// button press carrying an opaque callback payload. Exactly one of
// Text and Callback is meaningful; IsCallback tells which.
type Event struct {
	ChatID     int64
	UserID     int64
	FullName   string // sender's Telegram profile name, registration prefill
	MessageID  int
	Text       string
	Callback   string
	IsCallback bool
	Command    string // "start" or "cancel" for bot commands, else ""
}

// Callback payload prefixes and literals understood by the wizard.
const (
	cbProjectPrefix       = "project:"
	cbProductPrefix       = "product:"
	cbCategoryPrefix      = "category:"
	cbLabourTypePrefix    = "labour_type:"
	cbPaintTypePrefix     = "paint_type:"
	cbPaintMaterialPrefix = "paint_material:"
	cbMaterialTypePrefix  = "material_type:"
	cbMaterialPrefix      = "material:"
	cbTimePrefix          = "time:"
	cbVolumePrefix        = "volume:"

	cbBack            = "back"
	cbUseTelegramName = "use_telegram_name"
	cbSkip            = "skip"
	cbSkipQuantity    = "skip_quantity"
	cbCancel          = "cancel"
	cbConfirm         = "confirm"
	cbConfirmRegister = "confirm_registration"
	cbChangeName      = "change_name"
	cbSendReport      = "send_report"
	cbAddComment      = "add_comment"
	cbAddMore         = "add_more"
	cbFinish          = "finish"
)

// Button is one labeled, payload-bearing inline button.
type Button struct {
	Label string
	Data  string
}

// Message is one outbound prompt: text plus an optional button layout.
type Message struct {
	Text     string
	Keyboard [][]Button
	Edit     bool // edit the triggering message instead of sending anew
	Track    bool // remember the sent message id for later cleanup
	Exempt   bool // never delete this message during cleanup
	HTML     bool
}

// Response is the full outcome of one event: messages to deliver,
// previously tracked message ids to delete first, and whether the
// conversation ended.
type Response struct {
	Messages []Message
	Delete   []int
	Ended    bool
}

func reply(msgs ...Message) Response {
	return Response{Messages: msgs}
}

func end(msgs ...Message) Response {
	return Response{Messages: msgs, Ended: true}
}
