// Package research provides the web_search tool offered to reasoning roles.
package research
