package voice

import (
	"encoding/json"

	"github.com/code-100-precent/TableEcho/pkg/llm"
)

// 动作词表，封闭集合，推理引擎只能调用这里列出的动作
const (
	ActionCheckAvailability       = "check_availability"
	ActionCreateReservation       = "create_reservation"
	ActionModifyReservation       = "modify_reservation"
	ActionCancelReservation       = "cancel_reservation"
	ActionGetCustomerReservations = "get_customer_reservations"
	ActionUpdateCustomerName      = "update_customer_name"
	ActionAnswerFAQ               = "answer_faq"
	ActionTransferToHuman         = "transfer_to_human"
	ActionEndCall                 = "end_call"
)

// ActionTools 动作词表对应的工具定义，每轮推理都会完整下发
func ActionTools() []llm.ToolDefinition {
	return []llm.ToolDefinition{
		{
			Name:        ActionCheckAvailability,
			Description: "Check whether a table is available for a given date, time and party size. Returns up to 3 alternative times when the slot is fully booked.",
			Parameters: json.RawMessage(`{
				"type": "object",
				"properties": {
					"date": {"type": "string", "description": "Reservation date, YYYY-MM-DD"},
					"time": {"type": "string", "description": "Reservation time, HH:MM 24h"},
					"partySize": {"type": "integer", "description": "Number of guests"}
				},
				"required": ["date", "time", "partySize"]
			}`),
		},
		{
			Name:        ActionCreateReservation,
			Description: "Create a confirmed reservation for the caller. Only call this after the caller agreed on date, time and party size.",
			Parameters: json.RawMessage(`{
				"type": "object",
				"properties": {
					"date": {"type": "string", "description": "Reservation date, YYYY-MM-DD"},
					"time": {"type": "string", "description": "Reservation time, HH:MM 24h"},
					"partySize": {"type": "integer", "description": "Number of guests"},
					"specialRequests": {"type": "string", "description": "Optional special requests, e.g. window seat"}
				},
				"required": ["date", "time", "partySize"]
			}`),
		},
		{
			Name:        ActionModifyReservation,
			Description: "Change fields of an existing reservation. Fields that are not provided stay unchanged.",
			Parameters: json.RawMessage(`{
				"type": "object",
				"properties": {
					"reservationId": {"type": "integer", "description": "Id of the reservation to change"},
					"date": {"type": "string", "description": "New date, YYYY-MM-DD"},
					"time": {"type": "string", "description": "New time, HH:MM 24h"},
					"partySize": {"type": "integer", "description": "New number of guests"},
					"specialRequests": {"type": "string", "description": "New special requests"}
				},
				"required": ["reservationId"]
			}`),
		},
		{
			Name:        ActionCancelReservation,
			Description: "Cancel an existing reservation.",
			Parameters: json.RawMessage(`{
				"type": "object",
				"properties": {
					"reservationId": {"type": "integer", "description": "Id of the reservation to cancel"}
				},
				"required": ["reservationId"]
			}`),
		},
		{
			Name:        ActionGetCustomerReservations,
			Description: "List the caller's upcoming reservations.",
			Parameters: json.RawMessage(`{
				"type": "object",
				"properties": {}
			}`),
		},
		{
			Name:        ActionUpdateCustomerName,
			Description: "Save the caller's name once they tell it to you.",
			Parameters: json.RawMessage(`{
				"type": "object",
				"properties": {
					"name": {"type": "string", "description": "The caller's name"}
				},
				"required": ["name"]
			}`),
		},
		{
			Name:        ActionAnswerFAQ,
			Description: "Look up the answer to a general question about the restaurant, like parking, dress code or dietary options.",
			Parameters: json.RawMessage(`{
				"type": "object",
				"properties": {
					"question": {"type": "string", "description": "The caller's question"}
				},
				"required": ["question"]
			}`),
		},
		{
			Name:        ActionTransferToHuman,
			Description: "Transfer the call to a human staff member when the request is beyond what you can handle.",
			Parameters: json.RawMessage(`{
				"type": "object",
				"properties": {
					"reason": {"type": "string", "description": "Why the call needs a human"},
					"notes": {"type": "string", "description": "Optional context for the staff member"}
				},
				"required": ["reason"]
			}`),
		},
		{
			Name:        ActionEndCall,
			Description: "End the call after saying goodbye, or when the caller hangs up the conversation.",
			Parameters: json.RawMessage(`{
				"type": "object",
				"properties": {
					"reason": {"type": "string", "description": "Why the call is ending"}
				},
				"required": ["reason"]
			}`),
		},
	}
}
