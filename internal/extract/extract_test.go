package extract

import (
	"net/url"
	"testing"

	"loc-sim/internal/geo"
)

func mustURL(t *testing.T, s string) *url.URL {
	t.Helper()
	u, err := url.Parse(s)
	if err != nil {
		t.Fatalf("parse %q: %v", s, err)
	}
	return u
}

func TestFromMapURL(t *testing.T) {
	cases := []struct {
		name string
		url  string
		want geo.Coordinate
		ok   bool
	}{
		{"ll", "https://maps.example.com/?ll=31.2304,121.4737", geo.Coordinate{Lat: 31.2304, Lon: 121.4737}, true},
		{"q_with_trailing", "https://maps.example.com/?q=39.90,116.40,17z", geo.Coordinate{Lat: 39.90, Lon: 116.40}, true},
		{"center", "https://maps.example.com/?center=22.5431,114.0579", geo.Coordinate{Lat: 22.5431, Lon: 114.0579}, true},
		{"path_at", "https://maps.example.com/place/x/@37.7749,-122.4194,12z/data", geo.Coordinate{Lat: 37.7749, Lon: -122.4194}, true},
		{"ll_wins_over_path", "https://maps.example.com/@1.0,2.0?ll=31.0,121.0", geo.Coordinate{Lat: 31.0, Lon: 121.0}, true},
		{"no_match", "https://maps.example.com/search?query=coffee", geo.Coordinate{}, false},
		{"ll_garbage", "https://maps.example.com/?ll=abc,def", geo.Coordinate{}, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, ok := FromMapURL(mustURL(t, c.url))
			if ok != c.ok || got != c.want {
				t.Fatalf("got %+v %v, want %+v %v", got, ok, c.want, c.ok)
			}
		})
	}
}

func TestFromDeepLink(t *testing.T) {
	if c, ok := FromDeepLink("locsim://spoof?lat=39.9&lon=116.4"); !ok || c != (geo.Coordinate{Lat: 39.9, Lon: 116.4}) {
		t.Fatalf("spoof host: %+v %v", c, ok)
	}
	nested := url.QueryEscape("https://maps.example.com/?ll=31.2304,121.4737")
	if c, ok := FromDeepLink("locsim://process-map-url?url=" + nested); !ok || c != (geo.Coordinate{Lat: 31.2304, Lon: 121.4737}) {
		t.Fatalf("process-map-url host: %+v %v", c, ok)
	}
	if _, ok := FromDeepLink("locsim://spoof?lat=39.9"); ok {
		t.Fatal("missing lon must fail")
	}
	if _, ok := FromDeepLink("locsim://process-map-url"); ok {
		t.Fatal("missing nested url must fail")
	}
}

func TestParseFreeText(t *testing.T) {
	cases := []struct {
		in   string
		want geo.Coordinate
		ok   bool
	}{
		{"31.2304,121.4737", geo.Coordinate{Lat: 31.2304, Lon: 121.4737}, true},
		{" 39.9 , 116.4 ", geo.Coordinate{Lat: 39.9, Lon: 116.4}, true},
		// 首记号超出纬度界，换序解释
		{"121.4737,31.2304", geo.Coordinate{Lat: 31.2304, Lon: 121.4737}, true},
		// 两种次序都合法时纬度在前
		{"30,60", geo.Coordinate{Lat: 30, Lon: 60}, true},
		// 200 超出两个界；换序后经度 200 仍越界
		{"200, 30", geo.Coordinate{}, false},
		{"30, 200", geo.Coordinate{}, false},
		{"abc,30", geo.Coordinate{}, false},
		{"30", geo.Coordinate{}, false},
		{"30,40,50", geo.Coordinate{}, false},
		{"", geo.Coordinate{}, false},
	}
	for _, c := range cases {
		got, ok := ParseFreeText(c.in)
		if ok != c.ok || got != c.want {
			t.Errorf("%q: got %+v %v, want %+v %v", c.in, got, ok, c.want, c.ok)
		}
	}
}
