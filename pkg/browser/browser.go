// Package browser starts the headless Chrome sessions used for platforms
// that only render prices and ETAs client side.
package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	cdpbrowser "github.com/chromedp/cdproto/browser"
	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/chromedp"
)

const UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

type Options struct {
	Headless bool
	Timeout  time.Duration
	Width    int
	Height   int
}

// New opens a fresh Chrome tab bound to parent. The returned cancel closes
// the tab and the browser process.
func New(parent context.Context, o Options) (context.Context, context.CancelFunc) {
	if o.Width == 0 {
		o.Width, o.Height = 1440, 900
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.UserAgent(UserAgent),
		chromedp.WindowSize(o.Width, o.Height),
		chromedp.Flag("headless", o.Headless),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.NoSandbox,
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(parent, opts...)
	ctx, cancelTab := chromedp.NewContext(allocCtx)

	cancelTimeout := context.CancelFunc(func() {})
	if o.Timeout > 0 {
		ctx, cancelTimeout = context.WithTimeout(ctx, o.Timeout)
	}

	return ctx, func() {
		cancelTimeout()
		cancelTab()
		cancelAlloc()
	}
}

// Scroll scrolls to the bottom count times, pausing to let lazy content load.
func Scroll(count int, pause time.Duration) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		for i := 0; i < count; i++ {
			if err := chromedp.Evaluate(`window.scrollBy(0, document.body.scrollHeight)`, nil).Do(ctx); err != nil {
				return err
			}
			if err := chromedp.Sleep(pause).Do(ctx); err != nil {
				return err
			}
		}
		return nil
	})
}

// Geolocation makes the page see the given coordinates through the
// navigator.geolocation API.
func Geolocation(lat, lng float64) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		if err := cdpbrowser.GrantPermissions([]cdpbrowser.PermissionType{cdpbrowser.PermissionTypeGeolocation}).Do(ctx); err != nil {
			return err
		}
		return emulation.SetGeolocationOverride().
			WithLatitude(lat).
			WithLongitude(lng).
			WithAccuracy(100).
			Do(ctx)
	})
}

const firstTextJS = `(() => {
	for (const sel of %s) {
		const el = document.querySelector(sel);
		if (el && el.innerText.trim()) return el.innerText.trim();
	}
	const m = document.body.innerText.match(/\d+\s*min(s|utes)?/i);
	return m ? m[0] : "";
})()`

// PollText stores in dst the text of the first selector that matches a
// non-empty element, trying up to tries times. Failing that it falls back
// to the first "<n> min" in the page. dst stays empty if nothing shows up.
func PollText(dst *string, tries int, pause time.Duration, selectors ...string) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		list, err := json.Marshal(selectors)
		if err != nil {
			return err
		}
		script := fmt.Sprintf(firstTextJS, list)

		for i := 0; i < tries; i++ {
			if err := chromedp.Evaluate(script, dst).Do(ctx); err != nil {
				return err
			}
			if *dst != "" {
				return nil
			}
			if err := chromedp.Sleep(pause).Do(ctx); err != nil {
				return err
			}
		}
		return nil
	})
}
