package controllers

import "net/http"

// AboutController serves the static about pages.
type AboutController struct {
	render *Renderer
}

func NewAboutController(render *Renderer) *AboutController {
	return &AboutController{render: render}
}

func (ac *AboutController) Author(w http.ResponseWriter, r *http.Request) {
	ac.render.HTML(w, r, http.StatusOK, "about/author", nil)
}

func (ac *AboutController) Tech(w http.ResponseWriter, r *http.Request) {
	ac.render.HTML(w, r, http.StatusOK, "about/tech", nil)
}
