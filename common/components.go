package common

const (
	// SETTLEMENT name to identify the settlement confirmation tracker component
	SETTLEMENT = "settlement"
	// MULTIVM name to identify the multivm router component
	MULTIVM = "multivm"
)
