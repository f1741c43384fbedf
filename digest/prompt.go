package digest

import (
	"fmt"
	"strings"

	"github.com/pevans/newsdigest/llm"
	"github.com/pevans/newsdigest/scraper"
)

const systemPreamble = `You are an expert editorial writer for an intellectually rigorous publication. Your task is to write article summaries for a curated reading digest.

## Style Requirements

1. **Intellectual Rigor**: Engage with ideas at a substantive level, not superficially.
2. **Argument-Focused**: Present the article's central argument or thesis, not just its topic. Explain what the author contends, argues or demonstrates.
3. **Non-Therapeutic Voice**: Avoid emotional, self-help or therapeutic language. Keep analytical distance while remaining engaging.
4. **Deeper Principles**: Link contemporary issues to the philosophical, ethical or historical principles underneath them.
5. **Precise Language**: Every word should earn its place. Avoid filler, hedging and needless qualifications.
6. **Active Engagement**: Make readers want to read the full article.

## What to Avoid

- Hype or promotional language
- Vague topic descriptions ("discusses", "explores", "looks at")
- Clickbait or emotional manipulation
- Oversimplifying complex arguments
- Phrases like "In this article..." or "The author..."
`

const verbFirstRules = `
## Summary Openings

Open every summary with a strong active verb that states what the piece does ("Argues", "Contends", "Traces", "Challenges"). Never start a summary with the author's name.
`

const authorFirstRules = `
## Summary Openings

Open every summary with the author's full name exactly as given, followed by an active verb ("Jane Doe argues that...", "John Smith traces..."). Never open with "The author" or "This article".
`

const socialRules = `
## Social Posts

Social posts are short and shareable. Each post headline is punchy but never clickbait; each post summary is one or two sentences that give a reader a reason to click.
`

// BuildPrompt serializes articles into the system and user prompt for the
// given style. The reply grammar it requests is the one Parse reads.
func BuildPrompt(articles []scraper.Article, style Style, opts Options) llm.Prompt {
	opts = opts.WithDefaults()
	if !style.Valid() {
		style = DefaultStyle
	}

	return llm.Prompt{
		System: systemPrompt(style, opts),
		User:   userPrompt(articles, style, opts),
	}
}

func systemPrompt(style Style, opts Options) string {
	var b strings.Builder
	b.WriteString(systemPreamble)
	if style.AuthorFirst() {
		b.WriteString(authorFirstRules)
	} else {
		b.WriteString(verbFirstRules)
	}
	if style.SocialPosts() {
		b.WriteString(socialRules)
	}
	fmt.Fprintf(&b, `
## Summary Format

Each summary must:
- Be %d words or fewer
- Present the article's core argument or insight
- Be a single, well-crafted paragraph
`, opts.MaxSummaryWords)
	return b.String()
}

func userPrompt(articles []scraper.Article, style Style, opts Options) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Generate a complete digest for the following %d articles.\n\n", len(articles))

	for i, article := range articles {
		fmt.Fprintf(&b, "---\nARTICLE %d\nTitle: %s\nAuthor: %s\nURL: %s\n\nContent:\n%s\n---\n\n",
			i+1, article.Title, article.Author, article.URL,
			truncateChars(article.Content, opts.ContentBudget))
	}

	b.WriteString("Please provide:\n\n")

	step := 1
	fmt.Fprintf(&b, "%d. **HEADLINE**: A compelling, intellectually engaging headline that references the most interesting one or two articles. Hint at substantive ideas rather than using clickbait.\n\n", step)
	step++

	if style.CombinedSummary() {
		fmt.Fprintf(&b, "%d. **COMBINED SUMMARY**: A single sentence (20-30 words) that weaves together the themes of all articles.\n\n", step)
		step++
	}

	opening := "opens with an active verb"
	if style.AuthorFirst() {
		opening = "opens with the author's name"
	}
	fmt.Fprintf(&b, "%d. **INDIVIDUAL SUMMARIES**: For each article, in the order given:\n", step)
	b.WriteString("   - The article title (exactly as given)\n")
	b.WriteString("   - The author name (exactly as given)\n")
	fmt.Fprintf(&b, "   - A summary of %d words or fewer that %s and captures the central argument\n\n", opts.MaxSummaryWords, opening)
	step++

	if style.SocialPosts() {
		fmt.Fprintf(&b, "%d. **SOCIAL POSTS**: For each article, in the same order, a short post headline and a one or two sentence post summary.\n\n", step)
	}

	b.WriteString("Format your response EXACTLY as follows (this format will be parsed programmatically):\n\n")
	b.WriteString("HEADLINE: [Your headline here]\n\n")
	if style.CombinedSummary() {
		b.WriteString("COMBINED_SUMMARY: [Your one-sentence combined summary here]\n\n")
	}
	b.WriteString("ARTICLE_SUMMARIES:\n")
	for i := 1; i <= 2; i++ {
		fmt.Fprintf(&b, "%d. TITLE: [Article %d title]\nAUTHOR: [Article %d author]\nSUMMARY: [%d-word max summary]\n\n",
			i, i, i, opts.MaxSummaryWords)
	}
	b.WriteString("[Continue for all articles...]\n\n")

	if style.SocialPosts() {
		b.WriteString("SOCIAL_POSTS:\n")
		for i := 1; i <= 2; i++ {
			fmt.Fprintf(&b, "%d. POST_HEADLINE: [Post %d headline]\nPOST_SUMMARY: [Post %d summary]\n\n", i, i, i)
		}
		b.WriteString("[Continue for all articles...]\n\n")
	}

	fmt.Fprintf(&b, "Remember: each summary must be %d words or fewer, substantive, and focused on arguments rather than topics.", opts.MaxSummaryWords)

	return b.String()
}

// truncateChars keeps at most n characters of s.
func truncateChars(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
