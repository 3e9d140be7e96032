// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

/*
Package backend implements the portfolio REST API

A backend serves projects, skills and contact submissions from an entity store,
issues access tokens and forwards uploaded images to a kss driver.

Routes

All routes live below /api:

	GET    /api/health
	GET    /api/projects?featured=true|false
	GET    /api/projects/{id}
	POST   /api/projects               (authenticated)
	PUT    /api/projects/{id}          (authenticated)
	DELETE /api/projects/{id}          (authenticated)
	GET    /api/skills?category=
	GET    /api/skills/{id}
	POST   /api/skills                 (authenticated)
	PUT    /api/skills/{id}            (authenticated)
	DELETE /api/skills/{id}            (authenticated)
	POST   /api/contact
	GET    /api/contacts               (authenticated)
	PATCH  /api/contacts/{id}/read     (authenticated)
	GET    /api/stats
	POST   /api/uploads/image          multipart field "image"
	POST   /api/uploads/images         multipart field "images"
	POST   /api/auth/register
	POST   /api/auth/login
	POST   /api/auth/refresh
	POST   /api/auth/logout            (authenticated)
	GET    /api/auth/me                (authenticated)

Authenticated routes expect an "Authorization: Bearer <token>" header with a
token from /api/auth/login. A missing token is answered with 401, an invalid or
expired one with 403.

Errors

Every error is a JSON object with a single "error" property:

	{"error":"Project not found"}

Rate limits

Every /api route is limited per client IP, 100 requests in 15 minutes by
default. Contact submissions are additionally limited to 5 per hour. A limited
request is answered with 429 and does not reach its handler.

Example:

	curl -X POST http://localhost:5000/api/contact \
	  -H 'Content-Type: application/json' \
	  -d '{"name":"Ada","email":"ada@example.com","message":"Hello there, nice work!"}'
	{"message":"Message sent successfully","id":1}
*/
package backend
