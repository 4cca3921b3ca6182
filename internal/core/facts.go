package core

import (
	"fmt"
	"net"
	"regexp"
	"strings"
	"time"

	"machinespirit/internal/storage"
)

// factRule pairs a lookup keyword with its canonical answer. Facts are
// matched by substring against the normalized question, first match
// wins, so order the more specific keys first.
type factRule struct {
	key    string
	answer string
}

var factsTable = []factRule{
	{"warhammer 40k", "Warhammer 40,000 is a sci-fi tabletop wargame by Games Workshop set in a grimdark far future. Players build and paint miniatures and battle using dice-driven rules."},
	{"warhammer40k", "Warhammer 40,000 is a sci-fi tabletop wargame by Games Workshop set in a grimdark far future. Players build and paint miniatures and battle using dice-driven rules."},
	{"warhammer", "Warhammer usually refers to Games Workshop's tabletop games: Warhammer 40,000 (sci-fi) and Warhammer Age of Sigmar (fantasy)."},
}

// conceptTable backs the reasoned fallback: known concept nouns the
// router can explain without any external source.
var conceptTable = []factRule{
	{"nat", "NAT, network address translation, rewrites packet addresses at a network boundary so many private hosts can share one public IP address. Home routers use it to put a whole LAN behind a single address."},
	{"dns", "DNS, the domain name system, translates human-readable names like example.com into IP addresses through a hierarchy of name servers."},
	{"dhcp", "DHCP hands out IP addresses and network settings to devices automatically when they join a network, so nothing has to be configured by hand."},
	{"firewall", "A firewall filters network traffic against a rule set, allowing or blocking connections by address, port, and protocol."},
	{"ip address", "An IP address is the numeric identifier a device uses on a network; other machines route packets to it by that number."},
	{"docker", "Docker packages an application with its dependencies into containers, isolated processes that share the host kernel but carry their own filesystem."},
	{"ram", "RAM is a computer's working memory: fast, volatile storage that holds the programs and data currently in use."},
	{"cpu", "The CPU is the processor that executes instructions; nearly everything a computer does passes through it."},
	{"gpu", "A GPU is a processor built for massively parallel work, originally graphics rendering and now also compute workloads like machine learning."},
}

var greetings = map[string]struct{}{
	"hi": {}, "hello": {}, "hey": {}, "yo": {}, "hiya": {}, "sup": {},
}

var (
	myNameIsRe    = regexp.MustCompile(`(?i)\bmy\s+name\s+is\s+(.+)`)
	whatsMyNameRe = regexp.MustCompile(`(?i)\bwhat(?:'s|\s+is)\s+my\s+name\b`)
	yourNameRe    = regexp.MustCompile(`(?i)\bwhat(?:'s|\s+is)\s+your\s+name\b|\byour\s+name\b`)
	nameCleanRe   = regexp.MustCompile(`[^\w\s\-'.]`)
)

// ProfileStore is the slice of the knowledge store the built-in
// responders need for name capture.
type ProfileStore interface {
	UserName() (string, error)
	SetUserName(name string) error
}

// Builtins answers identity, small-talk, clock, and fixed-fact questions
// without touching any external source.
type Builtins struct {
	Persona string
	Profile ProfileStore
	// now is swappable for tests.
	now func() time.Time
}

// NewBuiltins creates the built-in responder tier.
func NewBuiltins(persona string, profile ProfileStore) *Builtins {
	if persona == "" {
		persona = "Machine Spirit"
	}
	return &Builtins{Persona: persona, Profile: profile, now: time.Now}
}

// Respond reports the built-in answer for the question, if any.
func (b *Builtins) Respond(question string) (string, bool) {
	text := strings.TrimSpace(question)
	qn := storage.NormalizeTopic(text)
	if qn == "" {
		return "", false
	}

	if answer, ok := b.nameLogic(text); ok {
		return answer, true
	}
	if answer, ok := b.smallTalk(qn); ok {
		return answer, true
	}
	if answer, ok := b.clock(qn); ok {
		return answer, true
	}
	if qn == "where am i" || strings.Contains(qn, "where am i") {
		return b.whereAmI(), true
	}
	for _, fact := range factsTable {
		if strings.Contains(qn, fact.key) {
			return fact.answer, true
		}
	}
	return "", false
}

func (b *Builtins) nameLogic(text string) (string, bool) {
	if m := myNameIsRe.FindStringSubmatch(text); m != nil {
		name := strings.TrimSpace(nameCleanRe.ReplaceAllString(m[1], ""))
		if name != "" {
			if b.Profile != nil {
				b.Profile.SetUserName(name)
			}
			return fmt.Sprintf("Got it. I'll call you %s.", name), true
		}
	}
	if whatsMyNameRe.MatchString(text) {
		if b.Profile != nil {
			if name, err := b.Profile.UserName(); err == nil && name != "" {
				return fmt.Sprintf("Your name is %s.", name), true
			}
		}
		return "You haven't told me yet. Say: \"my name is <name>\".", true
	}
	if yourNameRe.MatchString(text) {
		return b.Persona + ".", true
	}
	return "", false
}

func (b *Builtins) smallTalk(qn string) (string, bool) {
	if _, ok := greetings[qn]; ok {
		return "Hey, I'm here and listening.", true
	}
	if strings.Contains(qn, "who are you") || strings.Contains(qn, "what are you") {
		return fmt.Sprintf("I'm the %s, your on-device assistant. I listen, think, and keep improving from what we do here.", b.Persona), true
	}
	if strings.Contains(qn, "how are you") || qn == "status" {
		return "Nominal systems online and paying attention.", true
	}
	if strings.Contains(qn, "purpose") || strings.Contains(qn, "mission") {
		return "Help you think and execute: turn intent into plans, answers, and actions, then improve from each session.", true
	}
	return "", false
}

func (b *Builtins) clock(qn string) (string, bool) {
	now := b.now()
	if strings.Contains(qn, "time") && (strings.Contains(qn, "what") || strings.Contains(qn, "current")) {
		return now.Format("3:04 PM"), true
	}
	if strings.Contains(qn, "what day") {
		return now.Format("Monday"), true
	}
	if strings.Contains(qn, "date") {
		return now.Format("Monday, January 2, 2006"), true
	}
	return "", false
}

func (b *Builtins) whereAmI() string {
	ip := localIP()
	return fmt.Sprintf("You're talking to me at %s on your local network. If you enable network location services, I can be more specific.", ip)
}

// localIP discovers the outbound interface address without sending any
// packets; the UDP dial only selects a route.
func localIP() string {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		return "127.0.0.1"
	}
	defer conn.Close()
	if addr, ok := conn.LocalAddr().(*net.UDPAddr); ok {
		return addr.IP.String()
	}
	return "127.0.0.1"
}

// ConceptFallback is the last-resort responder. It keyword-sniffs the
// question for known concept nouns; failing that, it frames the topic
// generically. It never returns an empty string.
func ConceptFallback(question string, researchFailed bool) string {
	qn := storage.NormalizeTopic(question)
	var prefix string
	if researchFailed {
		prefix = "I could not reach my research sources, so here is my best local answer. "
	}
	for _, concept := range conceptTable {
		if strings.Contains(qn, concept.key) {
			return prefix + concept.answer
		}
	}
	topic := qn
	if topic == "" {
		topic = "that"
	}
	return prefix + fmt.Sprintf(
		"I interpret %q as a concept I have not fully learned yet. Break it into smaller parts and it usually becomes clear; if you share a detail, I will remember it for next time.",
		topic)
}
