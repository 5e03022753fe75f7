// Package update defines the tagged-union Update envelope delivered by
// getUpdates, mirroring the payload kinds of mubble/types and
// mubble/bot/cute_types (Message, CallbackQuery, InlineQuery, ...).
package update

import "encoding/json"

// Kind identifies which payload field of an Update is populated.
type Kind string

const (
	KindMessage            Kind = "message"
	KindEditedMessage      Kind = "edited_message"
	KindChannelPost        Kind = "channel_post"
	KindEditedChannelPost  Kind = "edited_channel_post"
	KindCallbackQuery      Kind = "callback_query"
	KindInlineQuery        Kind = "inline_query"
	KindChosenInlineResult Kind = "chosen_inline_result"
	KindChatJoinRequest    Kind = "chat_join_request"
	KindChatMember         Kind = "chat_member"
	KindMyChatMember       Kind = "my_chat_member"
	KindPreCheckoutQuery   Kind = "pre_checkout_query"
	KindShippingQuery      Kind = "shipping_query"
	KindPoll               Kind = "poll"
	KindPollAnswer         Kind = "poll_answer"
)

// User is the minimal subset of Telegram's User object the core cares about.
type User struct {
	ID        int64  `json:"id"`
	IsBot     bool   `json:"is_bot"`
	Username  string `json:"username,omitempty"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name,omitempty"`
	Language  string `json:"language_code,omitempty"`
}

// Chat is the minimal subset of Telegram's Chat object.
type Chat struct {
	ID       int64  `json:"id"`
	Type     string `json:"type"`
	Title    string `json:"title,omitempty"`
	Username string `json:"username,omitempty"`
}

// Message covers both plain messages and the edited/channel variants; the
// wire shape is identical, only the enclosing field name differs.
type Message struct {
	MessageID int64           `json:"message_id"`
	From      *User           `json:"from,omitempty"`
	Chat      Chat            `json:"chat"`
	Date      int64           `json:"date"`
	Text      string          `json:"text,omitempty"`
	Entities  json.RawMessage `json:"entities,omitempty"`
	ReplyTo   *Message        `json:"reply_to_message,omitempty"`
}

// CallbackQuery is a tap on an inline keyboard button.
type CallbackQuery struct {
	ID      string   `json:"id"`
	From    User     `json:"from"`
	Message *Message `json:"message,omitempty"`
	Data    string   `json:"data,omitempty"`
}

// InlineQuery is a user typing after "@botname " in any chat.
type InlineQuery struct {
	ID    string `json:"id"`
	From  User   `json:"from"`
	Query string `json:"query"`
	Offset string `json:"offset"`
}

// ChatJoinRequest is emitted for chats that require admin approval to join.
type ChatJoinRequest struct {
	Chat Chat  `json:"chat"`
	From User  `json:"from"`
	Date int64 `json:"date"`
	Bio  string `json:"bio,omitempty"`
}

// ChatMemberUpdated reports a membership status transition for one chat member.
type ChatMemberUpdated struct {
	Chat          Chat   `json:"chat"`
	From          User   `json:"from"`
	Date          int64  `json:"date"`
	OldStatus     string `json:"old_chat_member_status,omitempty"`
	NewStatus     string `json:"new_chat_member_status,omitempty"`
}

// PreCheckoutQuery precedes a successful payment.
type PreCheckoutQuery struct {
	ID               string `json:"id"`
	From             User   `json:"from"`
	Currency         string `json:"currency"`
	TotalAmount      int64  `json:"total_amount"`
	InvoicePayload   string `json:"invoice_payload"`
}

// Update is a tagged union: exactly one of the payload fields below is
// non-nil for any given envelope, selected by Kind.
type Update struct {
	UpdateID int64 `json:"update_id"`
	Kind     Kind  `json:"-"`

	Message            *Message           `json:"message,omitempty"`
	EditedMessage      *Message           `json:"edited_message,omitempty"`
	ChannelPost        *Message           `json:"channel_post,omitempty"`
	EditedChannelPost  *Message           `json:"edited_channel_post,omitempty"`
	CallbackQuery      *CallbackQuery     `json:"callback_query,omitempty"`
	InlineQuery        *InlineQuery       `json:"inline_query,omitempty"`
	ChatJoinRequest    *ChatJoinRequest   `json:"chat_join_request,omitempty"`
	ChatMember         *ChatMemberUpdated `json:"chat_member,omitempty"`
	MyChatMember       *ChatMemberUpdated `json:"my_chat_member,omitempty"`
	PreCheckoutQuery   *PreCheckoutQuery  `json:"pre_checkout_query,omitempty"`
}

// Raw returns the decoded payload pointer of whichever field was populated
// (nil if none), used by handler.Handler.Run and rule.FuncRule.Check to bind
// a parameter of the update-kind-specific type.
func (u *Update) Raw() any {
	switch {
	case u.Message != nil:
		return u.Message
	case u.EditedMessage != nil:
		return u.EditedMessage
	case u.ChannelPost != nil:
		return u.ChannelPost
	case u.EditedChannelPost != nil:
		return u.EditedChannelPost
	case u.CallbackQuery != nil:
		return u.CallbackQuery
	case u.InlineQuery != nil:
		return u.InlineQuery
	case u.ChatJoinRequest != nil:
		return u.ChatJoinRequest
	case u.ChatMember != nil:
		return u.ChatMember
	case u.MyChatMember != nil:
		return u.MyChatMember
	case u.PreCheckoutQuery != nil:
		return u.PreCheckoutQuery
	default:
		return nil
	}
}
