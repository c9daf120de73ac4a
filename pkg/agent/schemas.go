package agent

import "github.com/openjury/tribunal/pkg/llm"

// Response schemas per role and action. Structured turns must conform or
// the turn fails.

var openingStatementSchema = &llm.Schema{
	Name: "opening_statement",
	Definition: `{
		"type": "object",
		"properties": {
			"statement_type": {"type": "string"},
			"agent_name": {"type": "string"},
			"statement_text": {"type": "string"},
			"proposed_fine_eth": {"type": "number"},
			"proposed_ban_status": {"type": "string"},
			"proposed_compensation_eth": {"type": "number"}
		},
		"required": ["statement_text"]
	}`,
}

var rebuttalSchema = &llm.Schema{
	Name: "rebuttal_statement",
	Definition: `{
		"type": "object",
		"properties": {
			"statement_type": {"type": "string"},
			"agent_name": {"type": "string"},
			"statement_text": {"type": "string"},
			"counter_proposal_fine_eth": {"type": "number"},
			"counter_proposal_ban_status": {"type": "string"},
			"counter_proposal_compensation_eth": {"type": "number"}
		},
		"required": ["statement_text"]
	}`,
}

var lawyerQuerySchema = &llm.Schema{
	Name: "lawyer_query",
	Definition: `{
		"type": "object",
		"properties": {
			"statement_type": {"type": "string"},
			"agent_name": {"type": "string"},
			"query_text": {"type": "string"}
		},
		"required": ["query_text"]
	}`,
}

var expertTurnSchema = &llm.Schema{
	Name: "expert_turn",
	Definition: `{
		"type": "object",
		"properties": {
			"agent_name": {"type": "string"},
			"action_type": {"type": "string", "enum": ["assessment", "critique", "question"]},
			"content": {"type": "string"}
		},
		"required": ["content"]
	}`,
}

var answerSchema = &llm.Schema{
	Name: "answer",
	Definition: `{
		"type": "object",
		"properties": {
			"statement_type": {"type": "string"},
			"agent_name": {"type": "string"},
			"answer_text": {"type": "string"}
		},
		"required": ["answer_text"]
	}`,
}

var voteSchema = &llm.Schema{
	Name: "jury_vote",
	Definition: `{
		"type": "object",
		"properties": {
			"agent_name": {"type": "string"},
			"vote": {"type": "string", "enum": ["Guilty", "Not Guilty"]},
			"recommendation_fine_eth": {"type": "number"},
			"recommendation_ban": {"type": "string"},
			"recommendation_compensation_eth": {"type": "number"},
			"explanation": {"type": "string"}
		},
		"required": ["vote"]
	}`,
}

var verdictSchema = &llm.Schema{
	Name: "final_verdict",
	Definition: `{
		"type": "object",
		"properties": {
			"agent_name": {"type": "string"},
			"verdict_type": {"type": "string", "enum": ["Guilty", "Not Guilty"]},
			"final_fine_eth": {"type": "number"},
			"final_ban_status": {"type": "string"},
			"final_compensation_eth": {"type": "number"},
			"explanation": {"type": "string"},
			"social_score": {"type": "integer", "minimum": 0, "maximum": 100},
			"social_score_explanation": {"type": "string"},
			"victim_eth_address": {"type": "string"}
		},
		"required": ["verdict_type", "final_fine_eth", "final_compensation_eth", "social_score"]
	}`,
}

var clerkSchema = &llm.Schema{
	Name: "clerk_summary",
	Definition: `{
		"type": "object",
		"properties": {
			"agent_name": {"type": "string"},
			"log_entry": {"type": "string"},
			"transcript_line": {"type": "string"}
		},
		"required": ["log_entry", "transcript_line"]
	}`,
}
