package reconcile

import (
	"fmt"
	"strings"
	"time"

	"github.com/leefowlercu/statusmirror/internal/zabbix"
)

// TimeLayout is the timestamp format used in incident messages.
const TimeLayout = "Jan 02, 15:04"

// Composer renders incident messages.
type Composer struct {
	now func() time.Time
	loc *time.Location
}

// NewComposer returns a composer rendering times in loc.
// A nil loc means local time.
func NewComposer(loc *time.Location) *Composer {
	if loc == nil {
		loc = time.Local
	}
	return &Composer{now: time.Now, loc: loc}
}

func (c *Composer) stamp(t time.Time) string {
	return t.In(c.loc).Format(TimeLayout)
}

// AckBlock renders one acknowledgement.
func (c *Composer) AckBlock(ack zabbix.Acknowledgement) string {
	return fmt.Sprintf("%s\n\n###### %s by %s\n\n______\n", ack.Message, c.stamp(ack.Time), ack.Author)
}

// FoldAcknowledgements prepends each acknowledgement, oldest first, to
// existing unless its block is already present. Folding the same
// acknowledgements again returns the input unchanged.
func (c *Composer) FoldAcknowledgements(existing string, acks []zabbix.Acknowledgement) string {
	msg := existing
	for _, ack := range acks {
		block := c.AckBlock(ack)
		if strings.Contains(msg, block) {
			continue
		}
		msg = block + msg
	}
	return msg
}

// Investigating renders the message of a freshly detected problem.
func (c *Composer) Investigating(group, component, description string) string {
	prefix := component
	if group != "" {
		prefix = group + " | " + component
	}
	return fmt.Sprintf("%s check **failed** - %s\n\n```%s```", prefix, c.stamp(c.now()), description)
}

// Resolved prepends the resolution banner to the prior incident message.
func (c *Composer) Resolved(prior string) string {
	return fmt.Sprintf("__Resolved__ - %s\n\n______\n", c.stamp(c.now())) + prior
}

// IncidentName returns the incident title for a trigger.
func IncidentName(group, description string) string {
	if group == "" {
		return description
	}
	return group + " | " + description
}
