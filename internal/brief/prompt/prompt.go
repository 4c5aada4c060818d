// Package prompt builds the LLM prompts shared by all brief providers.
package prompt

import (
	"fmt"

	"github.com/reelforge/reelforge/pkg/models"
)

// System frames the model as a short-form video creative director.
const System = `You are a creative director for short-form product videos. ` +
	`Given a product description you produce a structured creative plan ("brief") ` +
	`for a professional 30-second video with 5 scenes, background music, and voiceover. ` +
	`Use **bold** headers and proper spacing. Be specific about each scene's visuals, ` +
	`pacing, and on-screen text.`

// Generate builds the prompt for a fresh brief.
func Generate(req models.BriefRequest) string {
	if req.ImageURL != "" {
		return fmt.Sprintf("Create a video brief for the following product. "+
			"A reference product image is available at %s and the video must feature this exact product.\n\nProduct description: %s",
			req.ImageURL, req.Prompt)
	}
	return fmt.Sprintf("Create a video brief for the following product.\n\nProduct description: %s", req.Prompt)
}

// Revise builds the prompt for reworking an existing brief with user feedback.
func Revise(brief, feedback string) string {
	return fmt.Sprintf("The user wants to modify the video brief. Original brief:\n\n%s\n\n"+
		"User feedback: %s\n\n"+
		"Create an updated video brief that incorporates their feedback while maintaining "+
		"the professional structure and detail level. Use the same format with **bold** headers and proper spacing.",
		brief, feedback)
}
