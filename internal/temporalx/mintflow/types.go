package mintflow

import "strconv"

const (
	WorkflowName = "mint_token"
	ActivityMint = "mint_token_attempts"
)

// WorkflowID is stable per completion and token ordinal. A completion that is
// reused for a new ordinal gets a new id.
func WorkflowID(completionID uint, tokenOrdinal int64) string {
	return "mint-" + strconv.FormatUint(uint64(completionID), 10) + "-" + strconv.FormatInt(tokenOrdinal, 10)
}
