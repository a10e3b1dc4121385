package model

// ReservationView is a Reservation with the holder's display name and the
// remaining seconds precomputed for clients.
type ReservationView struct {
	Reservation
	HolderName       string `json:"holder_name"`
	RemainingSeconds int64  `json:"remaining_seconds"`
}

// WaitView is a WaitEntry with the requester's display name resolved.
type WaitView struct {
	WaitEntry
	UserName string `json:"user_name"`
}

// HistoryView is a HistoryEntry with the holder's display name resolved.
type HistoryView struct {
	HistoryEntry
	HolderName string `json:"holder_name"`
}

// ResourceStatus is the read-side projection of one resource for one
// requester: registry record, current reservation, ordered queue, and the
// caller's own relationship to the resource.
type ResourceStatus struct {
	Resource     Resource         `json:"resource"`
	Reservation  *ReservationView `json:"reservation,omitempty"`
	Queue        []WaitView       `json:"queue"`
	Subscribers  int              `json:"subscribers"`
	IsHolder     bool             `json:"is_holder"`
	InQueue      bool             `json:"in_queue"`
	IsSubscribed bool             `json:"is_subscribed"`
}
