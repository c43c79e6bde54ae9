package storage

import (
	"time"

	"github.com/LJTian/NewsHarvest/internal/nlp"
	"github.com/LJTian/NewsHarvest/internal/processor"
)

type sample struct {
	source, title, summary, topic, sentiment, url string
	states, people                              []string
}

// samples are served when no run has produced real articles.
var samples = []sample{
	{"Times of India", "Government Announces Major Policy Changes",
		"The Union Cabinet has approved a comprehensive economic reform package aimed at boosting growth and creating jobs. The new policy includes tax incentives for manufacturing, infrastructure development, and digital transformation initiatives.",
		"politics", "0.20", "https://timesofindia.indiatimes.com/india/government-announces-major-policy-changes/articleshow/12345678.cms",
		[]string{"delhi"}, []string{"Modi"}},
	{"Times of India", "Stock Market Hits New High",
		"Sensex and Nifty reach record levels as foreign investments surge in Indian markets.",
		"business", "0.80", "https://timesofindia.indiatimes.com/business/india-business/stock-market-hits-new-high/articleshow/12345679.cms",
		[]string{"mumbai"}, []string{"Sitharaman"}},
	{"Times of India", "New Education Policy Implementation",
		"States begin implementing the new education policy with focus on skill development.",
		"politics", "0.50", "https://timesofindia.indiatimes.com/india/new-education-policy-implementation/articleshow/12345680.cms",
		[]string{"delhi", "gujarat"}, []string{"Kumar"}},
	{"Times of India", "Tech Giants Invest in India",
		"Major technology companies announce significant investments in Indian digital infrastructure.",
		"technology", "0.70", "https://timesofindia.indiatimes.com/india/tech-giants-invest-in-india/articleshow/12345681.cms",
		[]string{"bangalore", "hyderabad"}, []string{"Nadella"}},
	{"Times of India", "Climate Change Impact on Agriculture",
		"Farmers adapt to changing weather patterns with new agricultural techniques.",
		"agriculture", "0.30", "https://timesofindia.indiatimes.com/india/climate-change-impact-on-agriculture/articleshow/12345682.cms",
		[]string{"punjab", "haryana"}, []string{"Singh"}},
	{"NDTV", "Election Results Analysis",
		"Comprehensive analysis of state election results and their national implications.",
		"politics", "0.40", "https://www.ndtv.com/india-news/election-results-analysis-2024/article12345",
		[]string{"gujarat", "maharashtra"}, []string{"Shah", "Gandhi"}},
	{"NDTV", "India vs Australia: Match Preview",
		"India won the cricket match against Australia in an exciting finish at the Melbourne Cricket Ground.",
		"sports", "0.80", "https://www.ndtv.com/sports/india-vs-australia-match-preview-2024-article12346",
		[]string{"mumbai"}, []string{"Kohli", "Rohit"}},
	{"NDTV", "Healthcare System Reform",
		"Government announces major reforms in healthcare system with increased budget allocation.",
		"politics", "0.60", "https://www.ndtv.com/india-news/healthcare-system-reform-2024-article12347",
		[]string{"delhi"}, []string{"Mandaviya"}},
	{"NDTV", "Space Mission Success",
		"ISRO successfully launches new satellite with advanced capabilities.",
		"technology", "0.90", "https://www.ndtv.com/india-news/isro-successfully-launches-new-satellite-with-advanced-capabilities-article12348",
		[]string{"kerala"}, []string{"Somanath"}},
	{"NDTV", "Economic Growth Forecast",
		"International agencies revise India's growth forecast upward for next fiscal year.",
		"business", "0.70", "https://www.ndtv.com/india-news/international-agencies-revise-india-s-growth-forecast-upward-for-next-fiscal-year-article12349",
		[]string{"delhi"}, []string{"Das"}},
	{"India Today", "AI Innovation in Indian Startups",
		"Indian tech startups are leading innovation in artificial intelligence and machine learning sectors.",
		"technology", "0.60", "https://www.indiatoday.in/technology/story/ai-innovation-indian-startups-2024-article12345",
		[]string{"bangalore"}, []string{"Narayana"}},
	{"India Today", "Defense Deal Announced",
		"India signs major defense deal for advanced military equipment and technology transfer.",
		"politics", "0.50", "https://www.indiatoday.in/india/defense-deal-announced-2024-article12350",
		[]string{"delhi"}, []string{"Singh"}},
	{"India Today", "Tourism Sector Recovery",
		"Tourist destinations see sharp recovery in visitors as international travel resumes.",
		"business", "0.80", "https://www.indiatoday.in/travel/story/tourism-sector-recovery-2024-article12351",
		[]string{"kerala", "goa"}, []string{"Reddy"}},
	{"India Today", "Sports Infrastructure Development",
		"New sports complexes and training facilities announced across multiple states.",
		"sports", "0.70", "https://www.indiatoday.in/sports/story/sports-infrastructure-development-2024-article12352",
		[]string{"haryana", "punjab"}, []string{"Thakur"}},
	{"India Today", "Environmental Protection Initiative",
		"Government launches new program for forest conservation and wildlife protection.",
		"politics", "0.60", "https://www.indiatoday.in/environment/story/environmental-protection-initiative-2024-article12353",
		[]string{"uttarakhand"}, []string{"Yadav"}},
}

// FallbackArticles returns the fixed sample collection stamped with now.
// The result is never empty.
func FallbackArticles(now time.Time) []processor.Article {
	out := make([]processor.Article, 0, len(samples))
	for _, s := range samples {
		out = append(out, processor.Article{
			ID:        processor.ArticleID(s.source, s.url, s.title),
			Source:    s.source,
			Title:     s.title,
			Summary:   s.summary,
			Topic:     s.topic,
			Sentiment: s.sentiment,
			Entities: nlp.Entities{
				States: append([]string(nil), s.states...),
				People: append([]string(nil), s.people...),
			},
			URL:       s.url,
			Timestamp: now,
		})
	}
	return out
}

// IsFallback reports whether articles is the sample collection.
func IsFallback(articles []processor.Article) bool {
	if len(articles) != len(samples) {
		return false
	}
	for i, a := range articles {
		if a.ID != processor.ArticleID(samples[i].source, samples[i].url, samples[i].title) {
			return false
		}
	}
	return true
}
