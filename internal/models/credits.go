package models

// CreditsResponse is the payload of the pod credits API.
type CreditsResponse struct {
	PodsCredits []CreditsEntry `json:"pods_credits"`
	Status      string         `json:"status"`
}

// CreditsEntry is one pod's credit score, keyed by pubkey.
type CreditsEntry struct {
	PodID   string `json:"pod_id"`
	Credits int64  `json:"credits"`
}
