package config

import (
	"fmt"
	"net/url"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// DraftKey returns the storage key for a trainee's in-progress answers.
// Lecture and exam are both part of the key so drafts never leak across exams.
// Both ids are escaped so a separator inside an id cannot forge another key.
func (r *CacheKeyStruct) DraftKey(lectureID, examID string) string {
	return fmt.Sprintf("exam_draft:lecture:%s:exam:%s", url.QueryEscape(lectureID), url.QueryEscape(examID))
}

var CacheKey = NewCacheKeyStruct()
