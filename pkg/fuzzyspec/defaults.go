package fuzzyspec

// DefaultRules 返回内置规则配置
// 源自 replay 生态的通用规则：把语义等价但文本不同的 URL 折叠到同一归档路径
func DefaultRules() *Config {
	return &Config{
		ID:      "8f8f2b1c-0db4-4f5a-9a5c-53c5b9f0a8d1",
		Name:    "builtin",
		Version: DefaultConfigVersion,
		Rules: []Rule{
			{
				Name:    "googlevideo",
				Pattern: `.*googlevideo\.com/(videoplayback)\?(?:.*&)?(id=[^&]+).*`,
				Replace: `youtube.fuzzy.replayweb.page/$1?$2`,
				Tests: []RuleTest{
					{
						Input:    "foobargooglevideo.com/videoplayback?id=1576&key=value",
						Expected: "youtube.fuzzy.replayweb.page/videoplayback?id=1576",
					},
					{
						Input:    "r3---sn-gwpa.googlevideo.com/videoplayback?expire=9&id=o-abc&itag=18",
						Expected: "youtube.fuzzy.replayweb.page/videoplayback?id=o-abc",
					},
				},
			},
			{
				Name:    "youtubei",
				Pattern: `(?:www\.)?youtube(?:-nocookie)?\.com/(youtubei/[^?]+)\?(?:.*&)?(?P<video>videoId=[^&]+).*`,
				Replace: `youtube.fuzzy.replayweb.page/$1?${video}`,
				Tests: []RuleTest{
					{
						Input:    "www.youtube.com/youtubei/v1/player?key=abc&videoId=xxxx&other=1",
						Expected: "youtube.fuzzy.replayweb.page/youtubei/v1/player?videoId=xxxx",
					},
					{
						Input:    "youtube-nocookie.com/youtubei/v1/next?videoId=yyyy",
						Expected: "youtube.fuzzy.replayweb.page/youtubei/v1/next?videoId=yyyy",
					},
				},
			},
			{
				Name:    "youtube-embed",
				Pattern: `(?:www\.)?youtube(?:-nocookie)?\.com/(embed/[^?]+).*`,
				Replace: `youtube.fuzzy.replayweb.page/$1`,
				Tests: []RuleTest{
					{
						Input:    "www.youtube-nocookie.com/embed/aBcDeF?autoplay=1",
						Expected: "youtube.fuzzy.replayweb.page/embed/aBcDeF",
					},
				},
			},
			{
				Name:    "static-asset-version",
				Pattern: `(.*\.(?:css|js))\?(?:v=|_=)?\d+$`,
				Replace: `$1`,
				Tests: []RuleTest{
					{
						Input:    "cdn.example.com/app/main.css?1654425387",
						Expected: "cdn.example.com/app/main.css",
					},
					{
						Input:    "cdn.example.com/app/vendor.js?v=20240115",
						Expected: "cdn.example.com/app/vendor.js",
					},
				},
			},
		},
	}
}
