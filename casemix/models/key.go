package models

import (
	"fmt"
	"strings"
)

// EpisodeState is the episode timing dimension of a home health resource group.
type EpisodeState uint8

const (
	EpisodeUnknown EpisodeState = iota
	EpisodeEarly
	EpisodeLate
	EpisodeEarlyOrLate
)

func (e EpisodeState) String() string {
	switch e {
	case EpisodeEarly:
		return "Early Episode"
	case EpisodeLate:
		return "Late Episode"
	case EpisodeEarlyOrLate:
		return "Early or Late Episode"
	default:
		return "Unknown Episode"
	}
}

// TherapyBand collapses the therapy visit count of a resource group into three bands.
type TherapyBand uint8

const (
	TherapyUnknown TherapyBand = iota
	TherapyLow
	TherapyMid
	TherapyHigh
)

func (t TherapyBand) String() string {
	switch t {
	case TherapyLow:
		return "0-13 therapies"
	case TherapyMid:
		return "14-19 therapies"
	case TherapyHigh:
		return "20+ therapies"
	default:
		return "unknown therapies"
	}
}

// SeverityDimension names one of the three severity axes of a resource group.
type SeverityDimension uint8

const (
	Clinical SeverityDimension = iota
	Functional
	Service
)

func (d SeverityDimension) String() string {
	switch d {
	case Clinical:
		return "Clinical"
	case Functional:
		return "Functional"
	case Service:
		return "Service"
	default:
		return fmt.Sprintf("SeverityDimension(%d)", uint8(d))
	}
}

// Letter is the single character abbreviation used in the case-mix level codes (C1F2S3).
func (d SeverityDimension) Letter() byte {
	return d.String()[0]
}

// MaxLevel is the highest severity level defined for the dimension.
func (d SeverityDimension) MaxLevel() uint8 {
	if d == Service {
		return 5
	}
	return 3
}

// Label renders a level in the billing table vocabulary, e.g. "Clinical Severity Level 2".
func (d SeverityDimension) Label(level uint8) string {
	return fmt.Sprintf("%s Severity Level %d", d, level)
}

// CanonicalKey is the five dimension signature shared by the HHRG and case-mix tables.
// It is comparable and used directly as a map key by the joiner.
type CanonicalKey struct {
	Episode    EpisodeState
	Therapy    TherapyBand
	Clinical   uint8
	Functional uint8
	Service    uint8
}

// Valid reports whether every dimension holds a recognized value.
func (k CanonicalKey) Valid() bool {
	return k.Episode != EpisodeUnknown &&
		k.Therapy != TherapyUnknown &&
		inRange(k.Clinical, Clinical) &&
		inRange(k.Functional, Functional) &&
		inRange(k.Service, Service)
}

func inRange(level uint8, d SeverityDimension) bool {
	return level >= 1 && level <= d.MaxLevel()
}

// Fields returns the five dimensions in descriptor order.
func (k CanonicalKey) Fields() [5]string {
	return [5]string{
		k.Episode.String(),
		k.Therapy.String(),
		Clinical.Label(k.Clinical),
		Functional.Label(k.Functional),
		Service.Label(k.Service),
	}
}

func (k CanonicalKey) String() string {
	f := k.Fields()
	return strings.Join(f[:], ", ")
}

// Less orders keys by dimension, used to report keys deterministically.
func (k CanonicalKey) Less(o CanonicalKey) bool {
	if k.Episode != o.Episode {
		return k.Episode < o.Episode
	}
	if k.Therapy != o.Therapy {
		return k.Therapy < o.Therapy
	}
	if k.Clinical != o.Clinical {
		return k.Clinical < o.Clinical
	}
	if k.Functional != o.Functional {
		return k.Functional < o.Functional
	}
	return k.Service < o.Service
}
