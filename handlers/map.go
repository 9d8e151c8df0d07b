package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// mapHTML is a self-contained Leaflet viewer for eyeballing venue state
// without running the frontend. Markers are colored by availability:
// green above 0.66, yellow above 0.33, red below.
const mapHTML = `<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8" />
  <title>StudySpace Map</title>
  <meta name="viewport" content="width=device-width, initial-scale=1.0"/>
  <link
    rel="stylesheet"
    href="https://unpkg.com/leaflet@1.9.4/dist/leaflet.css"
    integrity="sha256-p4NxAoJBhIIN+hmNHrzRCf9tD/miZyoHS5obTRR9BMY="
    crossorigin=""
  />
  <style>html, body, #map { height: 100%; margin: 0; }</style>
</head>
<body>
  <div id="map"></div>
  <script src="https://unpkg.com/leaflet@1.9.4/dist/leaflet.js"
    integrity="sha256-20nQCchB9co0qIjJZRGuk2/Z9VM+kNiyxNV1lvTlZBo="
    crossorigin=""></script>
  <script>
    const CAMPUS = [41.3083, -72.9279];
    const map = L.map('map').setView(CAMPUS, 15);
    L.tileLayer('https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png', {
      maxZoom: 19,
      attribution: '&copy; OpenStreetMap contributors'
    }).addTo(map);

    fetch('/venues.geojson')
      .then(r => r.json())
      .then(fc => {
        fc.features.forEach(f => {
          const [lon, lat] = f.geometry.coordinates;
          const name = f.properties.name;
          const avail = f.properties.availability ?? 0.5;
          const color = avail >= 0.66 ? '#2ecc71' : (avail >= 0.33 ? '#f1c40f' : '#e74c3c');

          L.circleMarker([lat, lon], {
            radius: 10,
            color: color,
            fillColor: color,
            fillOpacity: 0.7,
            weight: 2
          })
          .bindPopup('<b>' + name + '</b><br/>Availability: ' + ((avail * 100) | 0) + '%')
          .addTo(map);
        });
      })
      .catch(err => console.error('Failed to load venues:', err));
  </script>
</body>
</html>
`

// MapPage serves the built-in map viewer.
func MapPage(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(mapHTML))
}
