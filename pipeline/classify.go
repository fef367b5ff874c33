package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/saninsteinn/assistbot/fuzzy"
	"github.com/saninsteinn/assistbot/types"
)

// smallTalkLabel is the synthetic topic offered alongside real knowledge-base
// topics. Picking it means the question needs no retrieved context.
const smallTalkLabel = "Small talk"

// classifyMinScore is the fuzzy-match floor below which a model-returned
// topic label is not trusted to name any catalog entry.
const classifyMinScore = 60

const examplesPerTopic = 2

var smallTalkExamples = []classifyExample{
	{"Hello", smallTalkLabel},
	{"How are you?", smallTalkLabel},
	{"What's the weather in Moscow?", smallTalkLabel},
}

type classifyExample struct {
	Question string
	Topic    string
}

// ClassifyStage picks the knowledge-base topic best matching the user
// question, or leaves the topic unset for small talk. The model's label is
// fuzzy-matched against the catalog because it is never trusted to reproduce
// a title exactly.
type ClassifyStage struct {
	deps Deps
}

// NewClassify creates the stage.
func NewClassify(deps Deps) *ClassifyStage { return &ClassifyStage{deps: deps} }

func (s *ClassifyStage) Name() string { return "classify" }

func (s *ClassifyStage) Run(ctx context.Context, st *State) error {
	topics, err := s.deps.Store.Topics(ctx, s.deps.BotID)
	if err != nil {
		return fmt.Errorf("classify: %w", err)
	}

	titles := make([]string, 0, len(topics)+1)
	titles = append(titles, smallTalkLabel)
	for _, t := range topics {
		titles = append(titles, t.Title)
	}

	examples := make([]classifyExample, 0, len(smallTalkExamples)+len(topics)*examplesPerTopic)
	examples = append(examples, smallTalkExamples...)
	for _, t := range topics {
		questions, err := s.deps.Store.SampleQuestions(ctx, t.ID, examplesPerTopic)
		if err != nil {
			return fmt.Errorf("classify: %w", err)
		}
		for _, q := range questions {
			examples = append(examples, classifyExample{Question: q.Text, Topic: t.Title})
		}
	}

	messages := types.WithSystemMessage(st.Messages, classifyPrompt(titles, examples, st.UserQuestion()))
	resp, err := s.deps.askJSON(ctx, s.Name(), messages, 256, func(r *types.AIResponse) bool {
		_, ok := r.StringField("topic")
		return ok
	})
	if err != nil {
		return fmt.Errorf("classify: %w", err)
	}

	label, _ := resp.StringField("topic")
	s.deps.logger().Info("classified question", zap.String("topic", label))

	best, ok := fuzzy.ExtractBest(label, titles)
	if !ok || best.Score < classifyMinScore || best.Index == 0 {
		s.deps.Debug.Set(s.Name(), "topic", smallTalkLabel)
		return nil
	}

	topic := topics[best.Index-1]
	s.deps.Debug.Set(s.Name(), "topic", topic.Title)
	st.Topic = &topic
	return nil
}

func classifyPrompt(titles []string, examples []classifyExample, userQuestion string) string {
	exampleLines := make([]string, 0, len(examples))
	for _, e := range examples {
		exampleLines = append(exampleLines, fmt.Sprintf("%q -> %q", e.Question, e.Topic))
	}
	return "Classify the user's question in a way that will help to search answer in the database by sentence embeddings.\n" +
		"Do not answer the question, but just classify to provide the search query.\n\n" +
		"Possible topics:\n" +
		listStr(titles) + "\n" +
		"Examples:\n" +
		listStr(exampleLines) + "\n\n" +
		"Please, provide the topic name that is relevant to the user question:\n" +
		"```\n" +
		userQuestion + "\n" +
		"```\n" +
		"Give only the topic name in the original spelling including language.\n" +
		jsonPrompt(`{"topic": "Topic name"}`)
}
