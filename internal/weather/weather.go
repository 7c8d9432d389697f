// Package weather fetches current conditions for the cities the assistant
// knows about.
package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

var (
	ErrUnknownCity  = errors.New("city is not configured")
	ErrUnauthorized = errors.New("weather api rejected the key")
)

// City is a supported location. Name is the OpenWeatherMap name, Locative the
// Russian form used in replies ("в Москве").
type City struct {
	Name     string
	Locative string
	Lat, Lon float64
}

var cities = map[string]City{
	"Ivanovo":          {"Ivanovo", "Иваново", 56.9942, 40.9858},
	"Moscow":           {"Moscow", "Москве", 55.7558, 37.6173},
	"Saint Petersburg": {"Saint Petersburg", "Санкт-Петербурге", 59.9343, 30.3351},
	"Yaroslavl":        {"Yaroslavl", "Ярославле", 57.6261, 39.8845},
	"Vladimir":         {"Vladimir", "Владимире", 56.1290, 40.4066},
	"Kostroma":         {"Kostroma", "Костроме", 57.7665, 40.9269},
	"Nizhny Novgorod":  {"Nizhny Novgorod", "Нижнем Новгороде", 56.3269, 44.0059},
	"Kazan":            {"Kazan", "Казани", 55.7887, 49.1221},
	"Yekaterinburg":    {"Yekaterinburg", "Екатеринбурге", 56.8389, 60.6057},
	"Krasnodar":        {"Krasnodar", "Краснодаре", 45.0355, 38.9753},
	"Sochi":            {"Sochi", "Сочи", 43.5855, 39.7231},
	"Tver":             {"Tver", "Твери", 56.8584, 35.9000},
	"Novosibirsk":      {"Novosibirsk", "Новосибирске", 55.0084, 82.9357},
}

// fragments map a stem of the Russian city name to the city, first match wins.
var fragments = []struct{ stem, city string }{
	{"москв", "Moscow"},
	{"питер", "Saint Petersburg"},
	{"спб", "Saint Petersburg"},
	{"санкт-петербург", "Saint Petersburg"},
	{"новгород", "Nizhny Novgorod"},
	{"ярослав", "Yaroslavl"},
	{"костр", "Kostroma"},
	{"владимир", "Vladimir"},
	{"иванов", "Ivanovo"},
	{"казан", "Kazan"},
	{"екатеринбург", "Yekaterinburg"},
	{"краснодар", "Krasnodar"},
	{"сочи", "Sochi"},
	{"твер", "Tver"},
	{"новосибирск", "Novosibirsk"},
}

// CityFromText returns the first known city mentioned in text, else def.
func CityFromText(text, def string) string {
	lower := strings.ToLower(text)
	for _, f := range fragments {
		if strings.Contains(lower, f.stem) {
			return f.city
		}
	}
	return def
}

// Lookup returns the configured city by its OpenWeatherMap name.
func Lookup(name string) (City, bool) {
	c, ok := cities[name]
	return c, ok
}

type Report struct {
	City        City
	Main        string
	Description string
	Temp        float64
	FeelsLike   float64
	Humidity    int
	Pressure    int
	WindSpeed   float64
}

// String renders the report as one spoken sentence group.
func (r Report) String() string {
	temp := int(math.Round(r.Temp))
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s Погода в %s: %s. ", emoji(r.Main), r.City.Locative, r.Description)
	fmt.Fprintf(&sb, "Температура %d°C, ощущается как %d°C. ", temp, int(math.Round(r.FeelsLike)))
	fmt.Fprintf(&sb, "Влажность %d%%. Ветер %s м/с.", r.Humidity, strconv.FormatFloat(r.WindSpeed, 'f', -1, 64))
	if rec := recommendation(temp, r.Main); rec != "" {
		sb.WriteString(" " + rec)
	}
	return sb.String()
}

type Provider interface {
	Current(ctx context.Context, city string) (Report, error)
}

// OpenWeatherMap queries the current-weather endpoint by coordinates.
type OpenWeatherMap struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewOpenWeatherMap creates a provider. Every request is bounded by timeout.
func NewOpenWeatherMap(apiKey, baseURL string, timeout time.Duration) *OpenWeatherMap {
	return &OpenWeatherMap{
		apiKey:  apiKey,
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

type owmResponse struct {
	Weather []struct {
		Main        string `json:"main"`
		Description string `json:"description"`
	} `json:"weather"`
	Main struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		Humidity  int     `json:"humidity"`
		Pressure  int     `json:"pressure"`
	} `json:"main"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
}

func (p *OpenWeatherMap) Current(ctx context.Context, city string) (Report, error) {
	c, ok := cities[city]
	if !ok {
		return Report{}, fmt.Errorf("%s: %w", city, ErrUnknownCity)
	}

	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(c.Lat, 'f', 4, 64))
	q.Set("lon", strconv.FormatFloat(c.Lon, 'f', 4, 64))
	q.Set("appid", p.apiKey)
	q.Set("units", "metric")
	q.Set("lang", "ru")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return Report{}, fmt.Errorf("build weather request: %w", err)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return Report{}, fmt.Errorf("weather request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return Report{}, ErrUnauthorized
	case resp.StatusCode != http.StatusOK:
		return Report{}, fmt.Errorf("weather api status %d", resp.StatusCode)
	}

	var body owmResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Report{}, fmt.Errorf("decode weather: %w", err)
	}
	if len(body.Weather) == 0 {
		return Report{}, errors.New("weather response has no conditions")
	}
	return Report{
		City:        c,
		Main:        body.Weather[0].Main,
		Description: body.Weather[0].Description,
		Temp:        body.Main.Temp,
		FeelsLike:   body.Main.FeelsLike,
		Humidity:    body.Main.Humidity,
		Pressure:    body.Main.Pressure,
		WindSpeed:   body.Wind.Speed,
	}, nil
}

func emoji(main string) string {
	switch main {
	case "Clear":
		return "☀️"
	case "Clouds":
		return "☁️"
	case "Rain":
		return "🌧️"
	case "Drizzle":
		return "🌦️"
	case "Thunderstorm":
		return "⛈️"
	case "Snow":
		return "❄️"
	case "Mist", "Haze", "Fog":
		return "🌫️"
	case "Tornado":
		return "🌪️"
	case "Smoke", "Dust", "Sand", "Ash", "Squall":
		return "💨"
	default:
		return "🌤️"
	}
}

func recommendation(temp int, main string) string {
	var recs []string
	switch {
	case temp < -10:
		recs = append(recs, "Очень холодно! Оденьтесь теплее.")
	case temp < 0:
		recs = append(recs, "Холодно! Наденьте куртку.")
	case temp < 10:
		recs = append(recs, "Прохладно, возьмите кофту.")
	case temp > 30:
		recs = append(recs, "Очень жарко! Пейте больше воды.")
	case temp > 25:
		recs = append(recs, "Жарко! Отличная погода для мороженого.")
	}
	switch {
	case main == "Rain" || main == "Drizzle" || main == "Thunderstorm":
		recs = append(recs, "Возьмите зонт!")
	case main == "Snow":
		recs = append(recs, "Осторожно, скользко!")
	case main == "Clear" && temp > 15:
		recs = append(recs, "Отличная погода для прогулки!")
	}
	return strings.Join(recs, " ")
}
