package script

// Positive and negative sentiment patterns used by the classification turns.
// Both only need to match somewhere in a leading span, hence the .* padding.
const (
	posPattern = `.*sometimes.*|.*yes.*|.*yup.*|.*yea.*|.*maybe.*|.*sure.*|.*like.*|.*kinda?( of)?.*|.*good.*|.*love.*|.*perfect.*|.*thanks?.*|.*ok.*|.*great.*|.*fine.*|.*cool.*|.*amazing.*|.*awesome.*|.*nice.*`
	negPattern = `.*no.*|.*not.*|.*never.*|.*don'?t.*|.*bad.*|.*n't.*|.*useless.*|.*m?eh.*|.*hate.*`
)

// Default returns the built-in conversation script.
//
// Turn topology: turn 1 greets, handles direct recommendation requests and
// catches everything else; turns 2, 5 and 6 classify the reply as positive or
// negative and branch toward a recommendation (3), a retry (4) or the end;
// turn 4 is the single retry hub back to 2; turn 0 is the farewell and always
// ends the conversation.
func Default() TableSpec {
	return TableSpec{
		TurnFarewell: {
			{
				Pattern: `.*`,
				Responses: []string{
					"Thanks @{name}, bye!",
					"See you later @{name}!",
				},
				NextTurn: TurnEnd,
			},
		},
		TurnStart: {
			{
				Pattern: `.*harry potter.*`,
				Responses: []string{
					"@{name}, you're joking right?",
					"Did you never learn any manners @{name}?",
				},
				NextTurn: TurnStart,
			},
			{
				Pattern: `.*random.*|.*show me.*|.*books?.*|.*recommend.*`,
				Responses: []string{
					"@{name} let's try {rec}",
					"@{name}, how about this {rec} ?",
				},
				NextTurn: TurnEnd,
			},
			{
				Pattern: `hi(.*)|hello(.*)|hey(.*)|what's up(.*)|.*greetings.*|.*good.*`,
				Responses: []string{
					"Hi @{name} Do you like {topic} books?",
					"Hello @{name} Would you read books about {topic} for fun?",
					"Hey @{name} Do you dream about {topic}?",
					"How do you do @{name}? Got {topic} on your mind?",
					"Hi @{name}! What do you think of {topic}, I love {topic}!",
				},
				NextTurn: 2,
			},
			{
				Pattern: `.*`,
				Responses: []string{
					"@{name} Do you want a book recommendation?",
					"Are you interested in learning something new @{name}?",
					"I don't know about that @{name}, but I do know about books, do you know them?",
					"Change of topic, @{name} do you like to read on Safari Books?",
					"I have a question @{name}, do you like to read?",
				},
				NextTurn: 6,
			},
		},
		2: {
			{
				Pattern: negPattern,
				Responses: []string{
					"Thats too bad @{name}, I thought I was just starting to get to know you",
					"One more try to help? There's still hope @{name}!",
				},
				NextTurn: 4,
				SkipUser: true,
			},
			{
				Pattern: posPattern,
				Responses: []string{
					"I thought so @{name}! you should try reading {rec}",
					"Interesting... @{name} how about {rec} ?",
					"@{name} I think you'll like {rec}",
					"Other people love {rec}, you might too @{name}",
					"Not to be creepy @{name}, but based on your history you might like {rec}",
				},
				NextTurn: 3,
				SkipUser: true,
			},
		},
		3: {
			{
				Pattern: `.*`,
				Responses: []string{
					"Well, what do you think @{name}?",
					"Let me know what you think @{name}",
					"How was it @{name}?",
				},
				NextTurn: 5,
			},
		},
		4: {
			{
				Pattern: `.*`,
				Responses: []string{
					"Let's try again @{name}. Do you like {topic}?",
					"What about {topic}? @{name}!!",
				},
				NextTurn: 2,
			},
		},
		5: {
			{
				Pattern:   negPattern,
				Responses: []string{"Ok @{name}, this is our last chance!"},
				NextTurn:  4,
				SkipUser:  true,
			},
			{
				Pattern:   posPattern,
				Responses: []string{"Wonderful @{name}! Enjoy!"},
				NextTurn:  TurnEnd,
				SkipUser:  true,
			},
		},
		6: {
			{
				Pattern: negPattern,
				Responses: []string{
					"Thats too bad @{name} :( I was just starting to like you!",
					"Better luck next time @{name}! Bye!",
				},
				NextTurn: TurnEnd,
				SkipUser: true,
			},
			{
				Pattern: posPattern,
				Responses: []string{
					"Ok @{name}, would you like to read about {topic}?",
					"Great! Do you like {topic}? @{name}",
					"How do you feel about {topic}? @{name}",
					"@{name} Do you like {topic}?",
				},
				NextTurn: 2,
			},
		},
	}
}
