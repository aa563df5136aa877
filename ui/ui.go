// Package ui rebuilds the renderable view of a stored conversation. Each
// persisted message maps to at most one descriptor; untyped messages, end
// sentinels and anything unparseable are skipped.
package ui

import (
	"encoding/json"

	"github.com/Desarso/searchpilot/chats"
)

// ComponentKind names the client component a descriptor renders with.
type ComponentKind string

const (
	ComponentUserMessage     ComponentKind = "user_message"
	ComponentCopilotDisplay  ComponentKind = "copilot_display"
	ComponentAnswerSection   ComponentKind = "answer_section"
	ComponentRelatedQueries  ComponentKind = "related_queries"
	ComponentFollowupPanel   ComponentKind = "followup_panel"
	ComponentSearchSection   ComponentKind = "search_section"
	ComponentRetrieveSection ComponentKind = "retrieve_section"
	ComponentVideoSection    ComponentKind = "video_section"
)

// Descriptor is one renderable unit of a conversation.
type Descriptor struct {
	ID        string          `json:"id"`
	Component ComponentKind   `json:"component"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Collapsed bool            `json:"collapsed,omitempty"`
}

// FromState maps a stored conversation to its descriptors, in order.
func FromState(state *chats.State) []Descriptor {
	var out []Descriptor
	for _, msg := range state.Messages {
		if msg.Type == chats.TypeNone || msg.Type == chats.TypeEnd {
			continue
		}
		if state.IsSharePage && (msg.Type == chats.TypeRelated || msg.Type == chats.TypeFollowup) {
			continue
		}

		switch msg.Role {
		case chats.RoleUser:
			switch msg.Type {
			case chats.TypeInput, chats.TypeInputRelated:
				var form map[string]string
				if err := json.Unmarshal([]byte(msg.Content), &form); err != nil {
					continue
				}
				key := "input"
				if msg.Type == chats.TypeInputRelated {
					key = "related_query"
				}
				payload, _ := json.Marshal(form[key])
				out = append(out, Descriptor{ID: msg.ID, Component: ComponentUserMessage, Payload: payload})
			case chats.TypeInquiry:
				payload, _ := json.Marshal(msg.Content)
				out = append(out, Descriptor{ID: msg.ID, Component: ComponentCopilotDisplay, Payload: payload})
			}
		case chats.RoleAssistant:
			switch msg.Type {
			case chats.TypeAnswer:
				payload, _ := json.Marshal(msg.Content)
				out = append(out, Descriptor{ID: msg.ID, Component: ComponentAnswerSection, Payload: payload})
			case chats.TypeRelated:
				if !json.Valid([]byte(msg.Content)) {
					continue
				}
				out = append(out, Descriptor{ID: msg.ID, Component: ComponentRelatedQueries, Payload: json.RawMessage(msg.Content)})
			case chats.TypeFollowup:
				out = append(out, Descriptor{ID: msg.ID, Component: ComponentFollowupPanel})
			}
		case chats.RoleTool:
			if !json.Valid([]byte(msg.Content)) {
				continue
			}
			component := ComponentKind("")
			switch msg.Name {
			case "search":
				component = ComponentSearchSection
			case "retrieve":
				component = ComponentRetrieveSection
			case "videoSearch":
				component = ComponentVideoSection
			default:
				continue
			}
			out = append(out, Descriptor{
				ID:        msg.ID,
				Component: component,
				Payload:   json.RawMessage(msg.Content),
				Collapsed: true,
			})
		}
	}
	return out
}
