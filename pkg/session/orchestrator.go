package session

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/openjury/tribunal/pkg/agent"
	"github.com/openjury/tribunal/pkg/config"
	"github.com/openjury/tribunal/pkg/ledger"
	"github.com/openjury/tribunal/pkg/llm"
	"github.com/openjury/tribunal/pkg/store"
)

// courtVoice is the speaker name for procedural system entries.
const courtVoice = "Court"

// Deps are the external collaborators a session consumes, injected at
// construction so tests can substitute doubles.
type Deps struct {
	LLM     llm.Client
	Store   store.DocumentStore
	Ledger  ledger.Ledger
	Profile *config.CourtroomProfile
	Tracer  trace.Tracer
	// Collection is the document-store collection case records live in.
	Collection string
	// TurnTimeout bounds each agent turn. Zero disables the bound and
	// leaves only the adapter-level timeouts.
	TurnTimeout time.Duration
}

// queryPair is one row of the fixed query-order table: asker questions
// target. Order is significant and never re-derived from budgets.
type queryPair struct {
	asker  *agent.Agent
	target *agent.Agent
}

// Orchestrator drives one courtroom session through its fixed phase
// sequence. Turns within a session run strictly sequentially; the only
// concurrency is between distinct sessions.
type Orchestrator struct {
	state *State

	prosecution *agent.Agent
	defense     *agent.Agent
	jury        []*agent.Agent
	judge       *agent.Agent
	clerk       *agent.Agent
	queryOrder  []queryPair

	store       store.DocumentStore
	ledger      ledger.Ledger
	profile     *config.CourtroomProfile
	tracer      trace.Tracer
	logger      *slog.Logger
	collection  string
	turnTimeout time.Duration
}

// New assembles the agents and state for one case. caseDetails is the
// immutable case document fetched from the store.
func New(caseID string, caseDetails map[string]any, deps Deps) *Orchestrator {
	profile := deps.Profile
	if profile == nil {
		profile = config.DefaultProfile()
	}

	prosecution := agent.NewProsecution(deps.LLM, profile.LawyerQueryBudget)
	defense := agent.NewDefense(deps.LLM, profile.LawyerQueryBudget)
	jury := agent.NewJuryExperts(deps.LLM, profile.ExpertQueryBudget)
	judge := agent.NewJudge(deps.LLM)
	clerk := agent.NewClerk(deps.LLM)

	participants := []*agent.Agent{prosecution, defense}
	participants = append(participants, jury...)
	participants = append(participants, judge, clerk)

	budgets := make(map[string]int, len(participants))
	names := make([]string, 0, len(participants))
	for _, a := range participants {
		budgets[a.Name] = a.MaxQueries
		names = append(names, a.Name)
	}

	// Fixed order: lawyers open the round, each expert asks a lawyer
	// once, then the lawyers get a second exchange.
	queryOrder := []queryPair{
		{prosecution, defense},
		{defense, prosecution},
		{jury[0], prosecution},
		{jury[1], defense},
		{jury[2], prosecution},
		{prosecution, defense},
		{defense, prosecution},
	}

	tracer := deps.Tracer
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("tribunal")
	}
	collection := deps.Collection
	if collection == "" {
		collection = "cases"
	}

	return &Orchestrator{
		state:       NewState(caseID, caseDetails, budgets, names),
		prosecution: prosecution,
		defense:     defense,
		jury:        jury,
		judge:       judge,
		clerk:       clerk,
		queryOrder:  queryOrder,
		store:       deps.Store,
		ledger:      deps.Ledger,
		profile:     profile,
		tracer:      tracer,
		logger:      slog.Default().With("component", "session", "case_id", caseID),
		collection:  collection,
		turnTimeout: deps.TurnTimeout,
	}
}

// State exposes the session's shared state for polling.
func (o *Orchestrator) State() *State { return o.state }

// Run walks the session through every phase. Any unhandled failure lands
// the session in ERROR; it stays queryable either way.
func (o *Orchestrator) Run(ctx context.Context) {
	if err := o.run(ctx); err != nil {
		o.logger.Error("courtroom session failed", "error", err)
		o.state.SetError(err.Error())
		o.state.AppendTranscript(courtVoice, fmt.Sprintf("Session ended with error: %v", err), KindError)
		if terr := o.state.AdvanceTo(PhaseError); terr != nil {
			o.logger.Error("could not enter error phase", "error", terr)
		}
	}
}

func (o *Orchestrator) run(ctx context.Context) error {
	ctx, span := o.tracer.Start(ctx, "session.run",
		trace.WithAttributes(attribute.String("case.id", o.state.CaseID())))
	defer span.End()

	if err := o.advance(ctx, PhaseStarting,
		"Courtroom session is commencing for Case ID: "+o.state.CaseID()); err != nil {
		return err
	}

	phases := []struct {
		phase    Phase
		announce string
		run      func(context.Context) error
	}{
		{PhaseOpening, "Phase 1: Opening Statements", o.runOpeningStatements},
		{PhaseQueryRounds, "Phase 2: Query Rounds (Lawyers: 2 each, Experts: 1 each)", o.runQueryRounds},
		{PhaseJury, "Phase 3: Jury Deliberation begins.", o.runJuryDeliberation},
		{PhaseVoting, "Phase 4: Jury Voting.", o.runVoting},
		{PhaseVerdict, "Phase 5: Judge delivers final verdict and sentencing.", o.runVerdict},
	}

	for _, p := range phases {
		if err := o.advance(ctx, p.phase, p.announce); err != nil {
			return err
		}
		phaseCtx, phaseSpan := o.tracer.Start(ctx, "session.phase",
			trace.WithAttributes(attribute.String("court.phase", string(p.phase))))
		err := p.run(phaseCtx)
		if err != nil {
			phaseSpan.RecordError(err)
		}
		phaseSpan.End()
		if err != nil {
			return err
		}
	}

	if err := o.state.AdvanceTo(PhaseCompleted); err != nil {
		return err
	}
	o.state.AppendTranscript(courtVoice, "Courtroom session concluded. Verdict delivered.", KindSystem)
	o.logger.Info("courtroom session completed")
	return nil
}

// advance moves the phase forward, announces it, and applies the phase
// pacing pause.
func (o *Orchestrator) advance(ctx context.Context, to Phase, announce string) error {
	if err := o.state.AdvanceTo(to); err != nil {
		return err
	}
	o.state.AppendTranscript(courtVoice, announce, KindSystem)
	o.logger.Info("phase entered", "phase", to)
	return o.pause(ctx, o.profile.Pacing.PhaseMs)
}

func (o *Orchestrator) runOpeningStatements(ctx context.Context) error {
	prosecutionOut, err := o.act(ctx, o.prosecution, agent.ActionOpeningStatement, agent.Context{
		"case_details": o.state.CaseDetails(),
	})
	if err != nil {
		return err
	}
	o.record(ctx, o.prosecution, prosecutionOut, KindStatement)
	if err := o.pause(ctx, o.profile.Pacing.TurnMs); err != nil {
		return err
	}

	defenseOut, err := o.act(ctx, o.defense, agent.ActionRebuttal, agent.Context{
		"case_details":        o.state.CaseDetails(),
		"prosecution_opening": prosecutionOut.Fields(),
	})
	if err != nil {
		return err
	}
	o.record(ctx, o.defense, defenseOut, KindStatement)
	return o.pause(ctx, o.profile.Pacing.TurnMs)
}

func (o *Orchestrator) runQueryRounds(ctx context.Context) error {
	for _, pair := range o.queryOrder {
		asker, target := pair.asker, pair.target

		if o.state.QueryCount(asker.Name) >= o.state.Budget(asker.Name) {
			// Budget exhausted: a skip notice, not an error.
			o.state.AppendTranscript(asker.Name,
				fmt.Sprintf("%s has used all their queries.", asker.Name), KindSystem)
			if err := o.pause(ctx, o.profile.Pacing.SkipMs); err != nil {
				return err
			}
			continue
		}

		queryOut, err := o.act(ctx, asker, agent.ActionQuery, agent.Context{
			"case_details":       o.state.CaseDetails(),
			"transcript_summary": o.state.TranscriptSummary(o.profile.TranscriptLimit),
			"remaining_queries":  o.state.Budget(asker.Name) - o.state.QueryCount(asker.Name),
		})
		if err != nil {
			return err
		}
		o.record(ctx, asker, queryOut, KindQuery)

		// Lawyers emit query_text; experts fold their question into
		// a general content field.
		queryText := queryOut.Field("query_text")
		if queryText == "" {
			queryText = queryOut.Field("content")
		}

		answerOut, err := o.act(ctx, target, agent.ActionAnswer, agent.Context{
			"case_details":       o.state.CaseDetails(),
			"transcript_summary": o.state.TranscriptSummary(o.profile.TranscriptLimit),
			"question_text":      queryText,
		})
		if err != nil {
			return err
		}
		o.record(ctx, target, answerOut, KindAnswer)

		if err := o.state.IncrementQueryCount(asker.Name); err != nil {
			return err
		}
		if err := o.pause(ctx, o.profile.Pacing.TurnMs); err != nil {
			return err
		}
	}
	return nil
}

func (o *Orchestrator) runJuryDeliberation(ctx context.Context) error {
	for round := 1; round <= o.profile.DeliberationRounds; round++ {
		o.state.AppendTranscript(courtVoice, fmt.Sprintf("Jury Deliberation Round %d", round), KindSystem)
		for _, juror := range o.jury {
			out, err := o.act(ctx, juror, agent.ActionDeliberate, agent.Context{
				"case_details":         o.state.CaseDetails(),
				"transcript_summary":   o.state.TranscriptSummary(o.profile.TranscriptLimit),
				"deliberation_summary": o.state.DeliberationSummary(o.profile.DeliberationLimit),
				"round":                round,
			})
			if err != nil {
				return err
			}

			o.state.AppendDeliberation(juror.Name, out.String())
			o.state.AppendTranscript(juror.Name, "Deliberating: "+out.String(), KindDeliberation)
			if err := o.pause(ctx, o.profile.Pacing.PhaseMs); err != nil {
				return err
			}
		}
	}
	o.state.AppendTranscript(courtVoice, "Jury deliberation concluded.", KindSystem)
	return o.pause(ctx, o.profile.Pacing.TurnMs)
}

func (o *Orchestrator) runVoting(ctx context.Context) error {
	for _, juror := range o.jury {
		out, err := o.act(ctx, juror, agent.ActionVote, agent.Context{
			"case_details":         o.state.CaseDetails(),
			"transcript_summary":   o.state.TranscriptSummary(o.profile.TranscriptLimit),
			"deliberation_summary": o.state.DeliberationSummary(o.profile.DeliberationLimit),
		})
		if err != nil {
			return err
		}

		vote := Vote{
			Vote: out.Field("vote"),
			Recommendation: Recommendation{
				FineEth:         out.Number("recommendation_fine_eth"),
				BanStatus:       out.Field("recommendation_ban"),
				CompensationEth: out.Number("recommendation_compensation_eth"),
				Explanation:     out.Field("explanation"),
			},
		}
		if err := o.state.RecordVote(juror.Name, vote); err != nil {
			return err
		}

		o.state.AppendTranscript(juror.Name, fmt.Sprintf(
			"Voted %q with recommendation: Fine %v ETH, Ban %q, Compensation %v ETH. Reason: %s",
			vote.Vote, vote.Recommendation.FineEth, vote.Recommendation.BanStatus,
			vote.Recommendation.CompensationEth, vote.Recommendation.Explanation), KindVote)
		if err := o.pause(ctx, o.profile.Pacing.PhaseMs); err != nil {
			return err
		}
	}

	consensus := Tally(o.state.Votes())
	o.state.SetConsensus(consensus)
	o.state.AppendTranscript(courtVoice,
		"Jury has cast votes. Final Jury Verdict: "+consensus, KindSystem)
	return o.pause(ctx, o.profile.Pacing.TurnMs)
}

func (o *Orchestrator) runVerdict(ctx context.Context) error {
	out, err := o.act(ctx, o.judge, agent.ActionVerdict, agent.Context{
		"case_details":       o.state.CaseDetails(),
		"transcript_summary": o.state.TranscriptSummary(o.profile.JudgeContextLimit),
		"jury_votes":         o.state.Votes(),
		"jury_consensus":     o.state.Consensus(),
	})
	if err != nil {
		return err
	}
	o.record(ctx, o.judge, out, KindStatement)

	if err := o.state.SetVerdict(out.Fields()); err != nil {
		return err
	}

	o.persistVerdict(ctx, out)
	o.recordOnLedger(ctx, out)
	return nil
}

// persistVerdict writes the verdict to the document store. Monetary
// amounts go in as wei strings so JSON round-trips keep full precision.
// A store failure here is logged, never fatal.
func (o *Orchestrator) persistVerdict(ctx context.Context, out agent.Output) {
	fineWei := ledger.ToWei(out.Number("final_fine_eth"))
	compensationWei := ledger.ToWei(out.Number("final_compensation_eth"))

	snapshot := o.state.Snapshot()
	update := map[string]any{
		"courtroomVerdict":     out.Fields(),
		"courtroomStatus":      string(o.state.Phase()),
		"courtroomTranscript":  snapshot.Transcript,
		"finalFineWei":         fineWei.String(),
		"finalCompensationWei": compensationWei.String(),
		"socialScore":          int(out.Number("social_score")),
		"victimEthAddress":     out.Field("victim_eth_address"),
	}

	if err := o.store.Set(ctx, o.collection, o.state.CaseID(), update); err != nil {
		o.logger.Error("verdict persistence failed", "error", err)
		o.state.AppendTranscript(agent.NameClerk,
			fmt.Sprintf("Document store update failed: %v", err), KindLog)
		return
	}
	o.state.AppendTranscript(agent.NameClerk, "Case record updated in document store.", KindLog)
}

// recordOnLedger attempts the on-chain write when the ledger is
// configured. The outcome is informational either way.
func (o *Orchestrator) recordOnLedger(ctx context.Context, out agent.Output) {
	if o.ledger == nil || !o.ledger.Configured() {
		o.state.AppendTranscript(agent.NameClerk,
			"Ledger not configured, skipping on-chain record.", KindLog)
		return
	}

	details := o.state.CaseDetails()
	postContent, _ := details["postContent"].(string)
	violationType := "N/A"
	if analysis, ok := details["analysis"].(map[string]any); ok {
		if vt, ok := analysis["violationType"].(string); ok && vt != "" {
			violationType = vt
		}
	}

	rec := ledger.CaseRecord{
		CaseID:          o.state.CaseID(),
		PostHash:        ledger.PostHash(postContent),
		VictimAddress:   out.Field("victim_eth_address"),
		ViolationType:   violationType,
		CouncilDecision: out.Field("verdict_type"),
		PenaltyWei:      ledger.ToWei(out.Number("final_fine_eth")),
		BanStatus:       out.Field("final_ban_status"),
		Explanation:     out.Field("explanation"),
		CompensationWei: ledger.ToWei(out.Number("final_compensation_eth")),
		SocialScore:     int(out.Number("social_score")),
	}

	receipt, err := o.ledger.RecordCase(ctx, rec)
	if err != nil {
		o.logger.Warn("ledger write failed", "error", err)
		o.state.AppendTranscript(agent.NameClerk,
			fmt.Sprintf("Ledger record failed: %v", err), KindLog)
		return
	}
	o.state.AppendTranscript(agent.NameClerk,
		"Case recorded on ledger. TX Hash: "+receipt.TxHash, KindLog)
}

// act performs one agent turn under the per-turn deadline, with a span
// per turn. The agent reads as Acting only while the turn is in flight.
func (o *Orchestrator) act(ctx context.Context, a *agent.Agent, action agent.Action, tc agent.Context) (agent.Output, error) {
	if o.turnTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.turnTimeout)
		defer cancel()
	}

	ctx, span := o.tracer.Start(ctx, "session.turn", trace.WithAttributes(
		attribute.String("agent.name", a.Name),
		attribute.String("agent.action", string(action)),
	))
	defer span.End()

	o.state.SetAgentStatus(a.Name, StatusActing)
	out, err := a.Act(ctx, action, tc)
	o.state.SetAgentStatus(a.Name, StatusWaiting)
	if err != nil {
		span.RecordError(err)
		return agent.Output{}, err
	}
	return out, nil
}

// record routes a structured turn through the clerk and appends both the
// clerk's log line and the public transcript line. A clerk failure is
// absorbed with synthetic lines; it never aborts the session.
func (o *Orchestrator) record(ctx context.Context, a *agent.Agent, out agent.Output, kind EntryKind) {
	o.state.SetCurrentTurn(a.Name, out.Fields())

	logLine, transcriptLine := o.summarize(ctx, out)
	o.state.AppendTranscript(agent.NameClerk, logLine, KindLog)
	o.state.AppendTranscript(a.Name, transcriptLine, kind)
}

func (o *Orchestrator) summarize(ctx context.Context, out agent.Output) (logLine, transcriptLine string) {
	clerkOut, err := o.act(ctx, o.clerk, agent.ActionSummarize, agent.Context{
		"latest_output": out.Fields(),
	})
	if err != nil {
		o.logger.Warn("clerk summarization failed", "error", err)
		line := fmt.Sprintf("Clerk Error: %v", err)
		return line, line
	}

	logLine = clerkOut.Field("log_entry")
	if logLine == "" {
		logLine = "No log entry from clerk."
	}
	transcriptLine = clerkOut.Field("transcript_line")
	if transcriptLine == "" {
		transcriptLine = "No transcript line from clerk."
	}
	return logLine, transcriptLine
}

// pause sleeps for the pacing interval, honoring cancellation. Pacing is
// presentation only; zero disables it.
func (o *Orchestrator) pause(ctx context.Context, ms int) error {
	if ms <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(time.Duration(ms) * time.Millisecond):
		return nil
	}
}
