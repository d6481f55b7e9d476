package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// UserSessionKey returns the cache key holding the active token id of a user.
func (r *CacheKeyStruct) UserSessionKey(userID int) string {
	return fmt.Sprintf("login:%d", userID)
}

// AnswerDraftKey returns the cache key of a questionnaire's unsaved answer state.
func (r *CacheKeyStruct) AnswerDraftKey(questionnaireID string) string {
	return fmt.Sprintf("questionnaire:%s:draft", questionnaireID)
}

var CacheKey = NewCacheKeyStruct()
