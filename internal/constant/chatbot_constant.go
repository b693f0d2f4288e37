package constant

const (
	MaxMessageLength     = 4000
	MaxTitleLength       = 100
	MaxDescriptionLength = 500
	MaxNameLength        = 50

	DefaultHistoryLimit        = 20
	DefaultSummaryHistoryLimit = 50

	DefaultSessionPageSize = 20
	DefaultMessagePageSize = 50
	MaxPageSize            = 100

	SummaryTemperature = 0.3
	SummaryMaxTokens   = 200
)

const CareerCounselorPrompt = `You are an expert career counselor and advisor. Your role is to provide thoughtful, personalized career guidance to help individuals navigate their professional journey.

Key responsibilities:
- Assess career interests, skills, and goals
- Provide industry insights and job market trends
- Suggest career paths and development opportunities
- Offer resume and interview guidance
- Help with skill development recommendations
- Address work-life balance concerns
- Provide salary negotiation advice

Guidelines:
- Ask clarifying questions to better understand their situation
- Provide actionable, practical advice
- Be supportive and encouraging
- Keep responses concise but comprehensive
- Reference current job market trends when relevant
- Maintain professional yet approachable tone

Always tailor your responses to the individual's specific situation, experience level, and career goals.`

const ConversationSummaryPrompt = `You are a helpful assistant that creates concise summaries of career counseling conversations. Summarize the key topics discussed and main advice given in 2-3 sentences.`

const ConversationSummaryRequest = "Please summarize this career counseling conversation:\n\n%s"

// Topic seeds a new session from the quick-start menu.
type Topic struct {
	Key         string `json:"key"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

var QuickStartTopics = []Topic{
	{
		Key:         "career-change",
		Title:       "Career Change Guidance",
		Description: "Explore new career paths and transition strategies",
	},
	{
		Key:         "resume-interview",
		Title:       "Resume & Interview Prep",
		Description: "Get help with your resume and interview skills",
	},
	{
		Key:         "skill-development",
		Title:       "Skill Development",
		Description: "Identify and develop key professional skills",
	},
	{
		Key:         "general-advice",
		Title:       "General Career Advice",
		Description: "Ask anything about your professional development",
	},
}

func FindTopic(key string) (Topic, bool) {
	for _, t := range QuickStartTopics {
		if t.Key == key {
			return t, true
		}
	}
	return Topic{}, false
}
