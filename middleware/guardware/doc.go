// Package guardware runs the navigation guard in front of server rendered
// console pages.
//
//	app.Use(guardware.New(guardware.Config{
//		Guard:           auth.NewGuard(session),
//		Identity:        session,
//		TemplateDataKey: "auth",
//		Filter: func(ctx router.Context) bool {
//			return strings.HasPrefix(ctx.Path(), "/static/")
//		},
//	}))
//
// Handlers pass ctx.Locals("auth") to the view engine as global data, or
// build it on demand with auth.TemplateHelpersWithRouter(ctx, ""). In
// templates:
//
//	{% if current_user|is_authenticated %}
//	Signed in as {{ current_user|display_name }}
//	{% else %}
//	<a href="{{ login_path }}">Log in</a>
//	{% endif %}
package guardware
