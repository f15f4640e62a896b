package domain

import "time"

// DeliveryKind names what triggered a push dispatch.
type DeliveryKind string

// Delivery kinds.
const (
	DeliveryApproval  DeliveryKind = "approval"
	DeliveryBroadcast DeliveryKind = "broadcast"
)

// DeliveryReport summarizes one dispatch of push messages.
type DeliveryReport struct {
	ID            string       `json:"id"`
	Kind          DeliveryKind `json:"kind"`
	WallpaperID   string       `json:"wallpaperId,omitempty"`
	ArtistID      string       `json:"artistId,omitempty"`
	Messages      int          `json:"messages"`
	Batches       int          `json:"batches"`
	FailedBatches int          `json:"failedBatches"`
	TicketsOK     int          `json:"ticketsOk"`
	TicketsError  int          `json:"ticketsError"`
	Errors        []string     `json:"errors,omitempty"`
	StartedAt     time.Time    `json:"startedAt"`
	FinishedAt    time.Time    `json:"finishedAt"`
}

// Delivered reports whether every batch reached the gateway.
func (r *DeliveryReport) Delivered() bool {
	return r.FailedBatches == 0
}
