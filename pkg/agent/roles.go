package agent

import (
	"encoding/json"
	"fmt"

	"github.com/openjury/tribunal/pkg/llm"
)

// Canonical participant names, used as transcript and vote-map keys.
const (
	NameProsecution     = "Prosecution Lawyer"
	NameDefense         = "Defense Lawyer"
	NameCyberLawExpert  = "Cyber Law Expert"
	NameDigitalActivist = "Digital Rights Activist"
	NameSocialMedia     = "Social Media Expert"
	NameJudge           = "Court Judge"
	NameClerk           = "Court Clerk"
)

// NewProsecution builds the prosecution lawyer.
func NewProsecution(client llm.Client, maxQueries int) *Agent {
	return New(NameProsecution, RoleProsecution,
		"Presents the case against the defendant, citing relevant cyber law types and the alleged violation, and states a proposed penalty. Formal, assertive, focused on facts and legal arguments.",
		maxQueries, client)
}

// NewDefense builds the defense lawyer.
func NewDefense(client llm.Client, maxQueries int) *Agent {
	return New(NameDefense, RoleDefense,
		"Rebuts the prosecution, highlights mitigating circumstances, and argues for innocence or a reduced penalty. Professional and skeptical of the prosecution's claims.",
		maxQueries, client)
}

// NewJuryExperts builds the three jury experts in their fixed seating
// order.
func NewJuryExperts(client llm.Client, maxQueries int) []*Agent {
	return []*Agent{
		New(NameCyberLawExpert, RoleJuryExpert,
			"Assesses the legal and technical aspects of the case impartially, clarifying ambiguities and citing relevant precedent.",
			maxQueries, client),
		New(NameDigitalActivist, RoleJuryExpert,
			"Safeguards user privacy and freedom of speech, flagging disproportionate penalties or digital overreach.",
			maxQueries, client),
		New(NameSocialMedia, RoleJuryExpert,
			"Evaluates the flagged content against online community norms, platform policies, and real-world spread and impact.",
			maxQueries, client),
	}
}

// NewJudge builds the presiding judge. The judge never participates in
// query rounds.
func NewJudge(client llm.Client) *Agent {
	return New(NameJudge, RoleJudge,
		"Presides over the session, synthesizes all arguments and the jury's input into a definitive ruling with sentence and a 0-100 social-impact score.",
		0, client)
}

// NewClerk builds the court clerk, the summarizing agent.
func NewClerk(client llm.Client) *Agent {
	return New(NameClerk, RoleClerk,
		"Records and summarizes the latest courtroom action objectively, producing a factual log entry and a public transcript line.",
		0, client)
}

func (a *Agent) buildPrompt(action Action, tc Context) (string, *llm.Schema, error) {
	switch a.Role {
	case RoleProsecution, RoleDefense:
		return a.lawyerPrompt(action, tc)
	case RoleJuryExpert:
		if action == ActionQuery {
			return a.expertQueryPrompt(tc), expertTurnSchema, nil
		}
		if action == ActionVote {
			return a.votePrompt(tc), voteSchema, nil
		}
	case RoleJudge:
		if action == ActionVerdict {
			return a.verdictPrompt(tc), verdictSchema, nil
		}
	case RoleClerk:
		if action == ActionSummarize {
			return a.clerkPrompt(tc), clerkSchema, nil
		}
	}
	return "", nil, fmt.Errorf("invalid action %q for role %q", action, a.Role)
}

func (a *Agent) lawyerPrompt(action Action, tc Context) (string, *llm.Schema, error) {
	switch action {
	case ActionOpeningStatement:
		return fmt.Sprintf(`You are the %s in a cyber law court session. %s Present a strong opening statement outlining the case against the defendant, and conclude with your proposed penalty: a fine in ETH/MATIC units, a ban status, and compensation for the victim.

**Case Details:**
%s

Respond in JSON with fields: statement_type, agent_name, statement_text, proposed_fine_eth, proposed_ban_status, proposed_compensation_eth.`,
			a.Name, a.Description, dump(tc["case_details"])), openingStatementSchema, nil

	case ActionRebuttal:
		return fmt.Sprintf(`You are the %s in this cyber law court session. %s Deliver a robust rebuttal to the Prosecution's opening statement below.

**Case Details:**
%s

**Prosecution's Opening Statement:**
%s

Respond in JSON with fields: statement_type, agent_name, statement_text, counter_proposal_fine_eth, counter_proposal_ban_status, counter_proposal_compensation_eth.`,
			a.Name, a.Description, dump(tc["case_details"]), dump(tc["prosecution_opening"])), rebuttalSchema, nil

	case ActionQuery:
		return fmt.Sprintf(`You are the %s in a query round. Ask one precise, insightful question that strengthens your side of the case. You have %v remaining queries.

**Case Details:**
%s

**Current Transcript Summary:**
%s

Respond in JSON with fields: statement_type, agent_name, query_text.`,
			a.Name, tc["remaining_queries"], dump(tc["case_details"]), str(tc["transcript_summary"])), lawyerQuerySchema, nil

	case ActionAnswer:
		return fmt.Sprintf(`You are the %s. You have been asked a question. Give a concise, factual answer that supports your side, drawing on the case details and your arguments.

**Case Details:**
%s

**Question asked:**
%s

**Current Transcript Summary:**
%s

Respond in JSON with fields: statement_type, agent_name, answer_text.`,
			a.Name, dump(tc["case_details"]), str(tc["question_text"]), str(tc["transcript_summary"])), answerSchema, nil
	}
	return "", nil, fmt.Errorf("invalid action %q for role %q", action, a.Role)
}

func (a *Agent) expertQueryPrompt(tc Context) string {
	return fmt.Sprintf(`You are the %s serving as a jury member. %s You get one opportunity to ask a question; otherwise give your current assessment.

**Case Details:**
%s

**Summary of Arguments Heard So Far:**
%s

Respond in JSON with fields: agent_name, action_type (assessment, critique or question), content.`,
		a.Name, a.Description, dump(tc["case_details"]), str(tc["transcript_summary"]))
}

func (a *Agent) deliberationPrompt(tc Context) string {
	return fmt.Sprintf(`You are %s during jury deliberation round %v. Review the case and previous deliberation points. Provide your current thoughts or respond to another jury member's statement. Aim for consensus.

**Case Details:**
%s

**Transcript Summary:**
%s

**Jury Deliberation History:**
%s

Provide your deliberation point.`,
		a.Name, tc["round"], dump(tc["case_details"]), str(tc["transcript_summary"]), str(tc["deliberation_summary"]))
}

func (a *Agent) votePrompt(tc Context) string {
	return fmt.Sprintf(`You are %s and a jury member. Deliberation is over. Cast your final vote (Guilty or Not Guilty) and give your recommended fine (ETH/MATIC units), ban status, and victim compensation, with a brief explanation.

**Case Details:**
%s

**Full Transcript:**
%s

**Jury Deliberation Summary:**
%s

Respond in JSON with fields: agent_name, vote, recommendation_fine_eth, recommendation_ban, recommendation_compensation_eth, explanation.`,
		a.Name, dump(tc["case_details"]), str(tc["transcript_summary"]), str(tc["deliberation_summary"]))
}

func (a *Agent) verdictPrompt(tc Context) string {
	return fmt.Sprintf(`You are the Court Judge presiding over this cyber law session. Synthesize all arguments and the jury's input into a definitive ruling (Guilty or Not Guilty) with a final fine (ETH/MATIC units), ban status, and victim compensation. Assign a social score from 0 (worst societal impact) to 100 (no negative impact) with a brief justification. Include the victim's wallet address from the case details.

**Case Details:**
%s

**Full Courtroom Transcript:**
%s

**Jury's Votes and Recommendations:**
%s

**Jury's Final Consensus:**
%s

Respond in JSON with fields: agent_name, verdict_type, final_fine_eth, final_ban_status, final_compensation_eth, explanation, social_score, social_score_explanation, victim_eth_address.`,
		dump(tc["case_details"]), str(tc["transcript_summary"]), dump(tc["jury_votes"]), str(tc["jury_consensus"]))
}

func (a *Agent) clerkPrompt(tc Context) string {
	return fmt.Sprintf(`You are the Court Clerk. Summarize the latest courtroom action for the running log, and extract the key public-facing line for the official transcript. Objective and factual.

**Latest Agent Output (JSON):**
%s

Respond in JSON with fields: agent_name, log_entry, transcript_line.`,
		dump(tc["latest_output"]))
}

func dump(v any) string {
	if v == nil {
		return "{}"
	}
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(raw)
}

func str(v any) string {
	s, _ := v.(string)
	return s
}
