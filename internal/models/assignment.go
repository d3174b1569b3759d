package models

// AssignmentUpdate is one instruction from the interpretation service: move
// the named item out of the Unassigned bucket into one or more person
// buckets. Items are matched by name, case-insensitively, against what is
// currently unassigned; already-assigned items are not re-assignable.
type AssignmentUpdate struct {
	// ItemName is the name of the item being assigned.
	ItemName string `json:"itemName"`

	// PersonName is the primary person the item is assigned to. When the
	// item is shared, this may be any one of the sharers.
	PersonName string `json:"personName"`

	// IsShared is true when the item is split among multiple people.
	IsShared bool `json:"isShared"`

	// SharedWith lists everyone sharing the item. Empty when not shared.
	SharedWith []string `json:"sharedWith"`
}

// Assignment is the interpretation service's full response for one chat
// command. NewPeople is advisory (people mentioned but not yet on the bill);
// only Updates mutates the bill.
type Assignment struct {
	Updates   []AssignmentUpdate `json:"updates"`
	NewPeople []string           `json:"newPeople"`
}

// ChatTurn is one user command and the bot's reply, kept as session history.
type ChatTurn struct {
	User string `json:"user"`
	Bot  string `json:"bot"`
}
