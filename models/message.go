package models

import (
	"time"

	"github.com/iStreamsERP/istreams-task-management/utils"
)

// DeliveryState is the client-simulated send indicator. The service does not
// report delivery, so the progression sent -> delivered -> read is local
// presentation state only.
type DeliveryState string

const (
	DeliverySent      DeliveryState = "sent"
	DeliveryDelivered DeliveryState = "delivered"
	DeliveryRead      DeliveryState = "read"
)

// Message is a chat record as returned by the service. The recipient is
// implicit: every fetch is scoped to the current user.
type Message struct {
	ID           string `json:"ID"`
	CreatedUser  string `json:"CREATED_USER"`
	EmpNo        string `json:"EMP_NO"`
	TaskInfo     string `json:"TASK_INFO"`
	CreatedOnRaw string `json:"CREATED_ON"`

	// Delivery is filled in client-side, never by the service.
	Delivery DeliveryState `json:"DELIVERY_STATE,omitempty"`

	// CreatedEmpImage is the sender's avatar from the employee image cache.
	CreatedEmpImage string `json:"createdEmpImage,omitempty"`

	CreatedOn time.Time `json:"-"`
}

func (m *Message) NormalizeDates() {
	if v, ok := utils.ParseServiceDate(m.CreatedOnRaw); ok {
		m.CreatedOn = v
	}
}
