package vast

// Generate validates cfg and ad, then assembles the complete document:
// ad identity, media files in order, duration, click URLs, the five
// default tracking milestones and finally any caller-supplied tracking
// events. No partial XML is ever produced: validation failures abort
// before a builder exists.
func Generate(cfg GenerationConfig, ad AdData) (string, error) {
	if err := cfg.Validate(); err != nil {
		return "", err
	}
	if err := ad.Validate(); err != nil {
		return "", err
	}

	b := NewBuilder(cfg)
	b.SetAdInfo(ad.ID, ad.Title, ad.Description, ad.AdSystem)
	for _, m := range ad.MediaFiles {
		b.AddMediaFile(m)
	}
	b.SetDuration(ad.Duration)
	b.SetClickUrls(ad.ClickThrough, ad.ClickTracking)
	b.AddDefaultTracking(ad.ID)

	// Custom events land after the defaults, in canonical enum order so
	// output is reproducible.
	for _, ev := range customEventOrder {
		if url := ad.Tracking[ev]; url != "" {
			b.AddTrackingEvent(ev, url)
		}
	}

	return b.Build(), nil
}
