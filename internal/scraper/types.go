package scraper

// PostLink ссылка на пост из листинга
type PostLink struct {
	Title string
	URL   string
}

// Selectors CSS-селекторы разметки Blogger
type Selectors struct {
	PostLinks  string   `yaml:"post_links"`
	OlderLink  string   `yaml:"older_link"`
	PagerLinks string   `yaml:"pager_links"`
	PostBody   string   `yaml:"post_body"`
	PostTitle  []string `yaml:"post_title"`
}

// DefaultSelectors селекторы стандартной темы Blogger
func DefaultSelectors() *Selectors {
	return &Selectors{
		PostLinks:  "h3.post-title a[href]",
		OlderLink:  "a.blog-pager-older-link",
		PagerLinks: "#blog-pager a[href]",
		PostBody:   ".post-body",
		PostTitle:  []string{"h3.post-title", "title"},
	}
}
