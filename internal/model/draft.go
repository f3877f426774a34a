// Package model はドメインモデルを定義する。
package model

import (
	"fmt"
	"time"
)

// DraftStatus は下書きの状態を表す。
type DraftStatus string

const (
	// DraftPendingReview はAfCに提出済みで審査待ちの状態。
	DraftPendingReview DraftStatus = "pending_review"
	// DraftUnderReview は審査中の状態。
	DraftUnderReview DraftStatus = "under_review"
	// DraftAccepted は審査で受理された状態。
	DraftAccepted DraftStatus = "accepted"
	// DraftDeclined は審査で却下された状態。
	DraftDeclined DraftStatus = "declined"
	// DraftInDevelopment は未提出で執筆中の状態。
	DraftInDevelopment DraftStatus = "in_development"
	// DraftAbandoned は放棄された状態。
	DraftAbandoned DraftStatus = "abandoned"
)

// ReportableDraftStatuses は下書き集計で常に出力する状態。
var ReportableDraftStatuses = []DraftStatus{
	DraftPendingReview,
	DraftUnderReview,
	DraftAccepted,
	DraftDeclined,
	DraftInDevelopment,
}

// IsSubmitted は状態がAfC提出後のものかを返す。
func (s DraftStatus) IsSubmitted() bool {
	switch s {
	case DraftPendingReview, DraftUnderReview, DraftAccepted, DraftDeclined:
		return true
	default:
		return false
	}
}

// Valid は定義済みの状態かを返す。
func (s DraftStatus) Valid() bool {
	return s.IsSubmitted() || s == DraftInDevelopment || s == DraftAbandoned
}

// DraftState は下書きの状態ごとに保証されるフィールドを持つ直和型。
// 実装はこのパッケージ内の InDevelopment、Abandoned、Submitted に限られる。
type DraftState interface {
	Status() DraftStatus
	draftState()
}

// InDevelopment は未提出で執筆中の下書き状態。
type InDevelopment struct{}

// Abandoned は放棄された下書き状態。
type Abandoned struct{}

// Submitted はAfCに提出された下書き状態。
// 提出日時とAfCログURLは必ず設定されている。
type Submitted struct {
	Review      DraftStatus
	SubmittedAt time.Time
	AFCLogURL   string
}

func (InDevelopment) Status() DraftStatus { return DraftInDevelopment }
func (Abandoned) Status() DraftStatus     { return DraftAbandoned }
func (s Submitted) Status() DraftStatus   { return s.Review }

func (InDevelopment) draftState() {}
func (Abandoned) draftState()     {}
func (Submitted) draftState()     {}

// NewSubmitted は提出済み状態を生成する。
// 提出後の状態以外、提出日時の欠落、AfCログURLの欠落はプログラミングエラーとしてpanicする。
func NewSubmitted(review DraftStatus, submittedAt time.Time, afcLogURL string) Submitted {
	if !review.IsSubmitted() {
		panic(fmt.Sprintf("model: %q is not a submitted draft status", review))
	}
	if submittedAt.IsZero() {
		panic("model: submitted draft requires submittedAt")
	}
	if afcLogURL == "" {
		panic("model: submitted draft requires afcLogURL")
	}
	return Submitted{Review: review, SubmittedAt: submittedAt, AFCLogURL: afcLogURL}
}

// NewDraftState はフラットな状態値と任意フィールドからDraftStateを組み立てる。
// 永続化層やリクエストの復元に使用し、不整合な組み合わせはエラーを返す。
func NewDraftState(status DraftStatus, submittedAt *time.Time, afcLogURL string) (DraftState, error) {
	switch {
	case status == DraftInDevelopment:
		return InDevelopment{}, nil
	case status == DraftAbandoned:
		return Abandoned{}, nil
	case status.IsSubmitted():
		if submittedAt == nil || submittedAt.IsZero() {
			return nil, fmt.Errorf("status %s requires submitted_at", status)
		}
		if afcLogURL == "" {
			return nil, fmt.Errorf("status %s requires afc_log_url", status)
		}
		return NewSubmitted(status, *submittedAt, afcLogURL), nil
	default:
		return nil, fmt.Errorf("unknown draft status: %q", status)
	}
}

// Draft はAfC向けに執筆中の下書きを表す。
type Draft struct {
	ID           string
	Title        string
	PageURL      string
	TalkPageURL  string
	State        DraftState
	CreatedAt    time.Time
	LastEditedAt time.Time
	COIDisclosed bool
	COIDetails   string
	Notes        string
}

// Status は下書きの状態を返す。
func (d Draft) Status() DraftStatus {
	return d.State.Status()
}

// SubmissionInfo は提出済みの場合に提出日時とAfCログURLを返す。
func (d Draft) SubmissionInfo() (submittedAt *time.Time, afcLogURL string) {
	switch s := d.State.(type) {
	case Submitted:
		at := s.SubmittedAt
		return &at, s.AFCLogURL
	case InDevelopment, Abandoned:
		return nil, ""
	default:
		panic(fmt.Sprintf("model: unhandled draft state %T", s))
	}
}
