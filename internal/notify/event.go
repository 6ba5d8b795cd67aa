package notify

import (
	"fmt"
	"strings"
	"time"
)

// EventType identifies the task transition behind a notification.
type EventType string

const (
	// EventAssigned fires when a task gains an assignee. Removing an
	// assignee fires nothing.
	EventAssigned EventType = "ASSIGNED"
	// EventStatusChanged fires when the status of an assigned task changes,
	// addressed to the assignee.
	EventStatusChanged EventType = "STATUS_CHANGED"
	// EventDueSoon fires from the scheduled scan for assigned, unfinished
	// tasks approaching their due date.
	EventDueSoon EventType = "DUE_SOON"
)

// Event is one notification to one recipient. Producers resolve the
// recipient before the transaction commits, senders only format and deliver.
type Event struct {
	Type EventType

	TaskID    int
	TaskTitle string

	ProjectID   int
	ProjectName string

	// RecipientEmail may be empty, delivery is then silently skipped.
	RecipientID    int
	RecipientName  string
	RecipientEmail string

	// ActorName is the user who triggered the transition, empty for
	// scheduled events.
	ActorName string

	// OldStatus and Status are set for STATUS_CHANGED events.
	OldStatus string
	Status    string

	// DueDate is set for DUE_SOON events.
	DueDate time.Time
}

// Subject renders the mail subject for the event.
func (e Event) Subject() string {
	switch e.Type {
	case EventAssigned:
		return fmt.Sprintf("New task assigned: %s", e.TaskTitle)
	case EventStatusChanged:
		return fmt.Sprintf("Task status updated: %s", e.TaskTitle)
	case EventDueSoon:
		return fmt.Sprintf("Task due soon: %s", e.TaskTitle)
	default:
		return fmt.Sprintf("Task update: %s", e.TaskTitle)
	}
}

// Body renders the plain text mail body for the event.
func (e Event) Body() string {
	var b strings.Builder

	fmt.Fprintf(&b, "Hello %s,\n\n", e.RecipientName)

	switch e.Type {
	case EventAssigned:
		b.WriteString("A task has been assigned to you:\n\n")
		fmt.Fprintf(&b, "  Task: %s\n", e.TaskTitle)
		fmt.Fprintf(&b, "  Project: %s\n", e.ProjectName)

		if e.ActorName != "" {
			fmt.Fprintf(&b, "  Assigned by: %s\n", e.ActorName)
		}
	case EventStatusChanged:
		b.WriteString("The status of your task has changed:\n\n")
		fmt.Fprintf(&b, "  Task: %s\n", e.TaskTitle)
		fmt.Fprintf(&b, "  Project: %s\n", e.ProjectName)
		fmt.Fprintf(&b, "  Old status: %s\n", e.OldStatus)
		fmt.Fprintf(&b, "  New status: %s\n", e.Status)

		if e.ActorName != "" {
			fmt.Fprintf(&b, "  Changed by: %s\n", e.ActorName)
		}
	case EventDueSoon:
		b.WriteString("Your task is approaching its due date:\n\n")
		fmt.Fprintf(&b, "  Task: %s\n", e.TaskTitle)
		fmt.Fprintf(&b, "  Project: %s\n", e.ProjectName)
		fmt.Fprintf(&b, "  Due: %s\n", e.DueDate.Format("2006-01-02"))
		fmt.Fprintf(&b, "  Status: %s\n", e.Status)
	}

	b.WriteString("\nSign in to the application for details.\n")

	return b.String()
}
