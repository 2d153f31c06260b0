package domain

import (
	"github.com/earthnet/frame-survey/internal/domain/survey"
)

const (
	MintStatusPending = survey.MintStatusPending
	MintStatusMinted  = survey.MintStatusMinted
	MintStatusFailed  = survey.MintStatusFailed
)

type Task = survey.Task
type Category = survey.Category
type Question = survey.Question
type Response = survey.Response
type Cluster = survey.Cluster
type Completion = survey.Completion

func ValidResponseValue(v int) bool { return survey.ValidValue(v) }
