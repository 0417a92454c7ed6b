package classify

import "github.com/berthwatch-io/berthwatch/pkg/protocol"

// Keyword tables are fixed, ordered configuration data. Slice order is
// load-bearing: category scoring breaks ties by first entry, and task
// signals are evaluated in checklist order.

// categoryEntry scores one category by subject keyword hits.
type categoryEntry struct {
	Category protocol.Category
	Keywords []string
}

var categoryKeywords = []categoryEntry{
	{protocol.CategoryTerminal, []string{
		"berth", "jetty", "st18", "st35", "st17", "st4",
		"mooring", "terminal", "loading rate", "shore",
	}},
	{protocol.CategoryAgent, []string{
		"voy", "voyage", "eta", "bunkers", "pilots", "laytime", "portbase",
		"etb", "etd", "arrival", "departure", "crew",
		"port call", "laycan", "advised eta",
	}},
	{protocol.CategorySurveyor, []string{
		"survey", "sgs", "bureau veritas", "intertek", "saybolt",
		"coa", "ullage", "sample",
	}},
	{protocol.CategoryLoadingMaster, []string{
		"loading plan", "discharge plan", "cargo plan",
		"tank allocation", "loading sequence",
	}},
	{protocol.CategoryNomination, []string{
		"stem", " grade", "bill of lading", "b/l",
		"amendment", "bc full nom",
	}},
	{protocol.CategoryOperations, []string{
		"schedule", "planning", "update", "delay", "waiting",
		"coordination", "meeting",
	}},
}

// agentDomains mark senders as ship's agents regardless of subject.
var agentDomains = []string{
	"wilhelmsen.com", "lbhnetherlands.com", "chemship.com",
	"vertomcory.com", "iss-shipping.com",
}

// subjectUrgencyKeywords force the HIGH PRIORITY category.
var subjectUrgencyKeywords = []string{"urgent", "asap", "critical", "immediate", "priority"}

// scoreUrgencyKeywords feed the urgency score (+30).
var scoreUrgencyKeywords = []string{"urgent", "asap", "critical"}

// voyageKeywords decide the vessel-mention fallback between AGENT and OPERATIONS.
var voyageKeywords = []string{"voy", "voyage", "eta", "etd", "laycan", "nomination"}

// delayKeywords feed DelayRisk; each distinct hit counts once.
var delayKeywords = []string{"awaiting", "delay", "delayed", "maintenance", "hold", "weather"}

// taskSignal holds the positive/negative phrase lists for one task.
type taskSignal struct {
	Task     string
	Positive []string
	Negative []string
}

var taskSignals = []taskSignal{
	{
		Task:     protocol.TaskPilotBooking,
		Positive: []string{"pilot ordered", "pilot on board", "incoming pilot ordered", "pilot confirmed", "pilotage arranged", "pilot booked"},
		Negative: []string{"awaiting pilot", "pilot tbc", "pilot pending", "pilot not", "no pilot"},
	},
	{
		Task:     protocol.TaskBerth,
		Positive: []string{"all fast", "first line ashore", "berth confirmed", "gangway down", "vessel moored", "berth allocated", "jetty confirmed"},
		Negative: []string{"awaiting berth availability", "awaiting berth", "berth tbc", "waiting for berth", "no berth"},
	},
	{
		Task:     protocol.TaskAgentNotified,
		Positive: []string{"notice of readiness tendered", "notice of readiness received", "nor tendered", "nor received", "nor submitted"},
	},
	{
		Task:     protocol.TaskSurveyor,
		Positive: []string{"surveyor on board", "surveyor confirmed", "samples taken", "calculations completed", "sgs confirmed", "intertek confirmed", "surveyor will attend"},
		Negative: []string{"surveyor tbc", "awaiting surveyor", "no surveyor", "surveyor not"},
	},
	{
		Task:     protocol.TaskLoadingPlan,
		Positive: []string{"cargo operations resumed", "commence discharging", "commence loading", "operations commenced", "cargo operations started", "loading commenced", "discharge commenced"},
		Negative: []string{"cargo operations suspended", "operations on hold", "operations suspended", "loading suspended"},
	},
	{
		Task:     protocol.TaskMooringCrew,
		Positive: []string{"all fast", "first line ashore", "vessel moored", "gangway down", "mooring complete"},
	},
}

// delayIndicators are scanned against the combined text independently of
// the task tables. Every match yields a delay notice; no deduplication.
var delayIndicators = []string{
	"cargo operations suspended",
	"delay - waiting",
	"operations suspended",
	"expect to commence",
	"revised eta",
	"postponed",
	"on hold",
	"due insufficient",
	"awaiting berth",
	"waiting for",
}
