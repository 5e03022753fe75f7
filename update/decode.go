package update

import (
	"encoding/json"

	"github.com/go-faster/errors"
)

// rawUpdate has Update's fields but not its UnmarshalJSON method, so a plain
// json.Unmarshal into it does not recurse; UnmarshalJSON then only needs to
// fix up Kind.
type rawUpdate Update

// UnmarshalJSON decodes the wire object and derives Kind from whichever
// payload field is non-nil, enforcing the "exactly one payload" invariant.
func (u *Update) UnmarshalJSON(data []byte) error {
	var raw rawUpdate
	if err := json.Unmarshal(data, &raw); err != nil {
		return errors.Wrap(err, "decode update")
	}
	*u = Update(raw)

	kinds := 0
	set := func(k Kind) {
		u.Kind = k
		kinds++
	}
	if u.Message != nil {
		set(KindMessage)
	}
	if u.EditedMessage != nil {
		set(KindEditedMessage)
	}
	if u.ChannelPost != nil {
		set(KindChannelPost)
	}
	if u.EditedChannelPost != nil {
		set(KindEditedChannelPost)
	}
	if u.CallbackQuery != nil {
		set(KindCallbackQuery)
	}
	if u.InlineQuery != nil {
		set(KindInlineQuery)
	}
	if u.ChatJoinRequest != nil {
		set(KindChatJoinRequest)
	}
	if u.ChatMember != nil {
		set(KindChatMember)
	}
	if u.MyChatMember != nil {
		set(KindMyChatMember)
	}
	if u.PreCheckoutQuery != nil {
		set(KindPreCheckoutQuery)
	}

	if kinds == 0 {
		return errors.New("update carries no recognized payload")
	}
	if kinds > 1 {
		return errors.Errorf("update %d carries %d payload kinds, want exactly one", u.UpdateID, kinds)
	}
	return nil
}

// GetUpdatesResponse is the decoded body of a getUpdates call.
type GetUpdatesResponse struct {
	OK          bool      `json:"ok"`
	Result      []Update  `json:"result"`
	Description string    `json:"description,omitempty"`
	ErrorCode   int       `json:"error_code,omitempty"`
}

// DecodeGetUpdates parses a getUpdates HTTP body.
func DecodeGetUpdates(body []byte) (*GetUpdatesResponse, error) {
	var resp GetUpdatesResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, errors.Wrap(err, "decode getUpdates response")
	}
	return &resp, nil
}
