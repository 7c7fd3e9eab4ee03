package models

import "time"

const (
	MessageTypeText = "text"
	MessageTypeFile = "file"
)

type User struct {
	ID        string `bson:"_id,omitempty" json:"id"`
	Email     string `bson:"email" json:"email"`
	FirstName string `bson:"first_name,omitempty" json:"firstName,omitempty"`
	LastName  string `bson:"last_name,omitempty" json:"lastName,omitempty"`
	Image     string `bson:"image,omitempty" json:"image,omitempty"`
	// Color is a palette index chosen by the user, not a raw color value.
	Color int `bson:"color" json:"color"`
}

// Message is immutable after creation and belongs to exactly one
// conversation: RecipientID is set for direct messages, ChannelID for
// channel messages, never both.
type Message struct {
	ID          string    `bson:"_id,omitempty" json:"id"`
	SenderID    string    `bson:"sender_id" json:"sender"`
	RecipientID string    `bson:"recipient_id,omitempty" json:"recipient,omitempty"`
	ChannelID   string    `bson:"channel_id,omitempty" json:"channelId,omitempty"`
	MessageType string    `bson:"message_type" json:"messageType"`
	Content     string    `bson:"content,omitempty" json:"content,omitempty"`
	FilePath    string    `bson:"file_path,omitempty" json:"filePath,omitempty"`
	Timestamp   time.Time `bson:"timestamp" json:"timestamp"`
}

type Channel struct {
	ID        string    `bson:"_id,omitempty" json:"id"`
	Name      string    `bson:"name" json:"name"`
	AdminID   string    `bson:"admin_id" json:"admin"`
	Members   []string  `bson:"members" json:"members"`
	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// Contact is a DM-list entry: the counterpart user plus the time of the
// last message exchanged with them.
type Contact struct {
	ID              string    `bson:"_id" json:"id"`
	Email           string    `bson:"email" json:"email"`
	FirstName       string    `bson:"first_name,omitempty" json:"firstName,omitempty"`
	LastName        string    `bson:"last_name,omitempty" json:"lastName,omitempty"`
	Image           string    `bson:"image,omitempty" json:"image,omitempty"`
	Color           int       `bson:"color" json:"color"`
	LastMessageTime time.Time `bson:"last_message_time" json:"lastMessageTime"`
}

// HasMember reports whether id is the admin or a listed member.
func (c *Channel) HasMember(id string) bool {
	if id == c.AdminID {
		return true
	}
	for _, m := range c.Members {
		if m == id {
			return true
		}
	}
	return false
}

// ConversationKey identifies the conversation a message belongs to: the
// channel id for channel messages, the unordered user pair for direct ones.
func (m *Message) ConversationKey() string {
	if m.ChannelID != "" {
		return ChannelKey(m.ChannelID)
	}
	return DirectKey(m.SenderID, m.RecipientID)
}

func DirectKey(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return "dm:" + a + ":" + b
}

func ChannelKey(channelID string) string {
	return "ch:" + channelID
}

// Counterpart returns the non-self party of a direct message, from either
// the sender or recipient position.
func (m *Message) Counterpart(selfID string) string {
	if m.SenderID == selfID {
		return m.RecipientID
	}
	return m.SenderID
}
