// Package registry holds the static stakeholder, context, variant and
// interaction trigger tables. Tables are loaded once, validated, and
// handed out as copies so callers cannot mutate shared state.
package registry

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/AbdouB/dialogue/internal/models"
	"github.com/AbdouB/dialogue/internal/search"
)

//go:embed data/*.yaml
var embedded embed.FS

// Data file names inside a registry directory
const (
	StakeholdersFile = "stakeholders.yaml"
	ContextsFile     = "contexts.yaml"
	VariantsFile     = "variants.yaml"
	TriggersFile     = "triggers.yaml"
	VoicesFile       = "voices.yaml"
	SentimentFile    = "sentiment.yaml"
)

// ErrUnknownID is matched by every UnknownIDError
var ErrUnknownID = errors.New("unknown id")

// UnknownIDError reports an id that is not in the registry
type UnknownIDError struct {
	Kind        string // "stakeholder", "context" or "variant"
	ID          string
	Suggestions []string
}

func (e *UnknownIDError) Error() string {
	msg := fmt.Sprintf("unknown %s %q", e.Kind, e.ID)
	if len(e.Suggestions) > 0 {
		msg += fmt.Sprintf(" (did you mean %s?)", strings.Join(e.Suggestions, ", "))
	}
	return msg
}

// Is makes errors.Is(err, ErrUnknownID) hold
func (e *UnknownIDError) Is(target error) bool {
	return target == ErrUnknownID
}

// Registry is the read-only set of static tables the engine evaluates against
type Registry struct {
	stakeholders []models.StakeholderProfile
	contexts     []models.ContextProfile
	variants     map[models.StakeholderID][]models.VariantProfile
	triggers     map[models.StakeholderID][]models.InteractionTrigger
	voices       map[models.StakeholderID]models.Voice
	sentiment    map[models.StakeholderID][]models.SentimentRule
}

type stakeholdersFile struct {
	Stakeholders []models.StakeholderProfile `yaml:"stakeholders"`
}

type contextsFile struct {
	Contexts []models.ContextProfile `yaml:"contexts"`
}

type variantsFile struct {
	Variants map[models.StakeholderID][]models.VariantProfile `yaml:"variants"`
}

type triggersFile struct {
	Triggers map[models.StakeholderID][]models.InteractionTrigger `yaml:"triggers"`
}

type voicesFile struct {
	Voices map[models.StakeholderID]models.Voice `yaml:"voices"`
}

type sentimentFile struct {
	Sentiment map[models.StakeholderID][]models.SentimentRule `yaml:"sentiment"`
}

// Load reads the registry tables compiled into the binary
func Load() (*Registry, error) {
	sub, err := fs.Sub(embedded, "data")
	if err != nil {
		return nil, fmt.Errorf("failed to open embedded registry: %w", err)
	}
	return LoadFS(sub)
}

// LoadDir reads registry tables from a directory. Files missing from the
// directory fall back to the embedded ones.
func LoadDir(dir string) (*Registry, error) {
	sub, err := fs.Sub(embedded, "data")
	if err != nil {
		return nil, fmt.Errorf("failed to open embedded registry: %w", err)
	}
	return LoadFS(overlayFS{top: os.DirFS(dir), base: sub})
}

// LoadFS reads and validates the registry tables from fsys
func LoadFS(fsys fs.FS) (*Registry, error) {
	var sf stakeholdersFile
	if err := decode(fsys, StakeholdersFile, &sf); err != nil {
		return nil, err
	}
	var cf contextsFile
	if err := decode(fsys, ContextsFile, &cf); err != nil {
		return nil, err
	}
	var vf variantsFile
	if err := decode(fsys, VariantsFile, &vf); err != nil {
		return nil, err
	}
	var tf triggersFile
	if err := decode(fsys, TriggersFile, &tf); err != nil {
		return nil, err
	}
	var wf voicesFile
	if err := decode(fsys, VoicesFile, &wf); err != nil {
		return nil, err
	}
	var mf sentimentFile
	if err := decode(fsys, SentimentFile, &mf); err != nil {
		return nil, err
	}

	r := &Registry{
		stakeholders: sf.Stakeholders,
		contexts:     cf.Contexts,
		variants:     vf.Variants,
		triggers:     tf.Triggers,
		voices:       wf.Voices,
		sentiment:    mf.Sentiment,
	}
	r.normalize()

	if err := r.Validate(); err != nil {
		return nil, fmt.Errorf("invalid registry: %w", err)
	}
	return r, nil
}

func decode(fsys fs.FS, name string, v any) error {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", name, err)
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", name, err)
	}
	return nil
}

// overlayFS serves files from top when present, otherwise from base
type overlayFS struct {
	top  fs.FS
	base fs.FS
}

func (o overlayFS) Open(name string) (fs.File, error) {
	f, err := o.top.Open(name)
	if err == nil {
		return f, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	return o.base.Open(name)
}

func (r *Registry) normalize() {
	if r.variants == nil {
		r.variants = map[models.StakeholderID][]models.VariantProfile{}
	}
	if r.triggers == nil {
		r.triggers = map[models.StakeholderID][]models.InteractionTrigger{}
	}
	if r.voices == nil {
		r.voices = map[models.StakeholderID]models.Voice{}
	}
	if r.sentiment == nil {
		r.sentiment = map[models.StakeholderID][]models.SentimentRule{}
	}
	for id, list := range r.triggers {
		for i := range list {
			if list[i].Kind == "" {
				list[i].Kind = models.TriggerConcern
			}
		}
		r.triggers[id] = list
	}
}

func (r *Registry) unknownStakeholder(id models.StakeholderID) error {
	candidates := make([]string, 0, len(r.stakeholders))
	for _, p := range r.stakeholders {
		candidates = append(candidates, string(p.ID))
	}
	return &UnknownIDError{Kind: "stakeholder", ID: string(id), Suggestions: search.Suggest(string(id), candidates, 3)}
}

func (r *Registry) indexOf(id models.StakeholderID) int {
	return slices.IndexFunc(r.stakeholders, func(p models.StakeholderProfile) bool { return p.ID == id })
}

// HasStakeholder reports whether id is a known stakeholder
func (r *Registry) HasStakeholder(id models.StakeholderID) bool {
	return r.indexOf(id) >= 0
}

// Stakeholder returns the profile of a stakeholder group
func (r *Registry) Stakeholder(id models.StakeholderID) (models.StakeholderProfile, error) {
	i := r.indexOf(id)
	if i < 0 {
		return models.StakeholderProfile{}, r.unknownStakeholder(id)
	}
	return copyProfile(r.stakeholders[i]), nil
}

// StakeholderIDs returns the stakeholder ids in declaration order
func (r *Registry) StakeholderIDs() []models.StakeholderID {
	ids := make([]models.StakeholderID, len(r.stakeholders))
	for i, p := range r.stakeholders {
		ids[i] = p.ID
	}
	return ids
}

// Stakeholders returns every profile in declaration order
func (r *Registry) Stakeholders() []models.StakeholderProfile {
	out := make([]models.StakeholderProfile, len(r.stakeholders))
	for i, p := range r.stakeholders {
		out[i] = copyProfile(p)
	}
	return out
}

// Context returns a development context profile
func (r *Registry) Context(id models.ContextID) (models.ContextProfile, error) {
	for _, c := range r.contexts {
		if c.ID == id {
			return copyContext(c), nil
		}
	}
	candidates := make([]string, 0, len(r.contexts))
	for _, c := range r.contexts {
		candidates = append(candidates, string(c.ID))
	}
	return models.ContextProfile{}, &UnknownIDError{Kind: "context", ID: string(id), Suggestions: search.Suggest(string(id), candidates, 3)}
}

// Contexts returns every context profile from least to most developed
func (r *Registry) Contexts() []models.ContextProfile {
	out := make([]models.ContextProfile, len(r.contexts))
	for i, c := range r.contexts {
		out[i] = copyContext(c)
	}
	return out
}

// Variant returns one persona variant of a stakeholder
func (r *Registry) Variant(stakeholder models.StakeholderID, id models.VariantID) (models.VariantProfile, error) {
	variants, err := r.Variants(stakeholder)
	if err != nil {
		return models.VariantProfile{}, err
	}
	candidates := make([]string, 0, len(variants))
	for _, v := range variants {
		if v.ID == id {
			return v, nil
		}
		candidates = append(candidates, string(v.ID))
	}
	return models.VariantProfile{}, &UnknownIDError{Kind: "variant", ID: string(id), Suggestions: search.Suggest(string(id), candidates, 3)}
}

// Variants returns the persona variants of a stakeholder
func (r *Registry) Variants(stakeholder models.StakeholderID) ([]models.VariantProfile, error) {
	if !r.HasStakeholder(stakeholder) {
		return nil, r.unknownStakeholder(stakeholder)
	}
	list := r.variants[stakeholder]
	out := make([]models.VariantProfile, len(list))
	for i, v := range list {
		out[i] = copyVariant(v)
	}
	return out, nil
}

// Triggers returns a stakeholder's interaction triggers in declaration order
func (r *Registry) Triggers(stakeholder models.StakeholderID) ([]models.InteractionTrigger, error) {
	if !r.HasStakeholder(stakeholder) {
		return nil, r.unknownStakeholder(stakeholder)
	}
	list := r.triggers[stakeholder]
	out := make([]models.InteractionTrigger, len(list))
	for i, t := range list {
		out[i] = copyTrigger(t)
	}
	return out, nil
}

// Voice returns the register hints of a stakeholder. Stakeholders
// without hints get a zero Voice.
func (r *Registry) Voice(stakeholder models.StakeholderID) (models.Voice, error) {
	if !r.HasStakeholder(stakeholder) {
		return models.Voice{}, r.unknownStakeholder(stakeholder)
	}
	v := r.voices[stakeholder]
	v.Examples = slices.Clone(v.Examples)
	return v, nil
}

// SentimentRules returns the rules scoring a stakeholder's reaction to
// adjusted targets, in evaluation order
func (r *Registry) SentimentRules(stakeholder models.StakeholderID) ([]models.SentimentRule, error) {
	if !r.HasStakeholder(stakeholder) {
		return nil, r.unknownStakeholder(stakeholder)
	}
	list := r.sentiment[stakeholder]
	out := make([]models.SentimentRule, len(list))
	for i, rule := range list {
		rule.When = slices.Clone(rule.When)
		out[i] = rule
	}
	return out, nil
}

func copyProfile(p models.StakeholderProfile) models.StakeholderProfile {
	p.Priorities = slices.Clone(p.Priorities)
	p.TypicalQuestions = slices.Clone(p.TypicalQuestions)
	p.Challenges = slices.Clone(p.Challenges)
	p.GoodPractices = slices.Clone(p.GoodPractices)
	p.ConcernTriggers = slices.Clone(p.ConcernTriggers)
	p.PositiveIndicators = slices.Clone(p.PositiveIndicators)
	p.ResponseTemplates = slices.Clone(p.ResponseTemplates)
	p.Advice.WhenConcerned = slices.Clone(p.Advice.WhenConcerned)
	p.Advice.WhenSupportive = slices.Clone(p.Advice.WhenSupportive)
	return p
}

func copyContext(c models.ContextProfile) models.ContextProfile {
	c.Characteristics = slices.Clone(c.Characteristics)
	c.ThresholdModifiers = slices.Clone(c.ThresholdModifiers)
	c.Appreciations = slices.Clone(c.Appreciations)
	if c.PriorityShifts != nil {
		shifts := maps.Clone(c.PriorityShifts)
		for k, v := range shifts {
			shifts[k] = slices.Clone(v)
		}
		c.PriorityShifts = shifts
	}
	return c
}

func copyVariant(v models.VariantProfile) models.VariantProfile {
	v.ThresholdModifiers = slices.Clone(v.ThresholdModifiers)
	return v
}

func copyTrigger(t models.InteractionTrigger) models.InteractionTrigger {
	t.Conditions = slices.Clone(t.Conditions)
	t.Contexts = slices.Clone(t.Contexts)
	return t
}
