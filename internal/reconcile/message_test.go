package reconcile

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/leefowlercu/statusmirror/internal/zabbix"
)

var fixedNow = time.Date(2024, time.March, 7, 9, 5, 0, 0, time.UTC)

func fixedComposer() *Composer {
	return &Composer{now: func() time.Time { return fixedNow }, loc: time.UTC}
}

func TestComposer_Investigating(t *testing.T) {
	c := fixedComposer()

	got := c.Investigating("Website", "Frontend", "HTTP check failed")
	assert.Equal(t, "Website | Frontend check **failed** - Mar 07, 09:05\n\n```HTTP check failed```", got)

	got = c.Investigating("", "DNS", "lookup failed")
	assert.Equal(t, "DNS check **failed** - Mar 07, 09:05\n\n```lookup failed```", got)
}

func TestComposer_Resolved(t *testing.T) {
	c := fixedComposer()

	got := c.Resolved("prior text")
	assert.Equal(t, "__Resolved__ - Mar 07, 09:05\n\n______\nprior text", got)
}

func TestComposer_TimeZone(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	c := &Composer{now: func() time.Time { return fixedNow }, loc: loc}

	assert.Contains(t, c.Resolved(""), "Mar 07, 11:05")
}

func TestComposer_FoldAcknowledgements(t *testing.T) {
	c := fixedComposer()
	first := zabbix.Acknowledgement{Time: fixedNow.Add(-time.Hour), Author: "Jane Doe", Message: "looking"}
	second := zabbix.Acknowledgement{Time: fixedNow, Author: "John Roe", Message: "fixed config"}

	assert.Equal(t, "looking\n\n###### Mar 07, 08:05 by Jane Doe\n\n______\n", c.AckBlock(first))

	folded := c.FoldAcknowledgements("base", []zabbix.Acknowledgement{first, second})
	assert.Equal(t, c.AckBlock(second)+c.AckBlock(first)+"base", folded, "newest acknowledgement ends up first")

	t.Run("idempotent", func(t *testing.T) {
		again := c.FoldAcknowledgements(folded, []zabbix.Acknowledgement{first, second})
		assert.Equal(t, folded, again)
		assert.Equal(t, 1, strings.Count(again, c.AckBlock(first)))
	})

	t.Run("only new blocks added", func(t *testing.T) {
		partial := c.FoldAcknowledgements("", []zabbix.Acknowledgement{first})
		extended := c.FoldAcknowledgements(partial, []zabbix.Acknowledgement{first, second})
		assert.Equal(t, c.AckBlock(second)+c.AckBlock(first), extended)
	})

	t.Run("no acknowledgements", func(t *testing.T) {
		assert.Equal(t, "base", c.FoldAcknowledgements("base", nil))
	})
}

func TestIncidentName(t *testing.T) {
	assert.Equal(t, "Website | Frontend down", IncidentName("Website", "Frontend down"))
	assert.Equal(t, "DNS down", IncidentName("", "DNS down"))
}
